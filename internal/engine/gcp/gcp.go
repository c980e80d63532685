// Package gcp renders the validated action inputs into Compute Engine
// API requests.  It only builds the messages; creating and deleting the
// VM is left to whatever consumes them.
package gcp

import (
	"fmt"
	"strconv"

	computepb "cloud.google.com/go/compute/apiv1/computepb"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/terrpan/vmrunner/internal/config"
)

// Label and metadata keys attached to runner VMs.
const (
	LabelRunner       = "github-runner-label"
	LabelRepoOwner    = "github-repo-owner"
	LabelRepoName     = "github-repo-name"
	LabelCoreFraction = "core-fraction"

	MetadataRunnerHomeDir = "runner-home-dir"
	MetadataRunnerLabel   = "runner-label"
	MetadataRepository    = "github-repository"
)

const gib = 1 << 30

// InstanceName returns the VM name used for a runner label.
func InstanceName(label string) string {
	return "runner-" + label
}

// InsertRequest builds the request that creates the runner VM named name
// for a start-mode config.
func InsertRequest(cfg *config.Config, name string) *computepb.InsertInstanceRequest {
	in := cfg.Input()
	repo := cfg.Repo()

	disk := &computepb.AttachedDisk{
		AutoDelete: proto.Bool(true),
		Boot:       proto.Bool(true),
		InitializeParams: &computepb.AttachedDiskInitializeParams{
			SourceImage: proto.String(in.ImageID),
			DiskSizeGb:  proto.Int64(diskSizeGB(in.DiskSize)),
			DiskType:    proto.String(fmt.Sprintf("zones/%s/diskTypes/%s", in.ZoneID, in.DiskType)),
		},
	}

	nic := &computepb.NetworkInterface{
		Subnetwork: proto.String(in.SubnetID),
	}

	instance := &computepb.Instance{
		Name:              proto.String(name),
		MachineType:       proto.String(MachineType(in.ZoneID, in.Resources)),
		MinCpuPlatform:    proto.String(in.PlatformID),
		Disks:             []*computepb.AttachedDisk{disk},
		NetworkInterfaces: []*computepb.NetworkInterface{nic},
		Labels: map[string]string{
			LabelRunner:       in.Label,
			LabelRepoOwner:    repo.Owner,
			LabelRepoName:     repo.Repo,
			LabelCoreFraction: strconv.Itoa(in.Resources.CoreFraction),
		},
		Metadata: &computepb.Metadata{
			Items: []*computepb.Items{
				{Key: proto.String(MetadataRunnerLabel), Value: proto.String(in.Label)},
				{Key: proto.String(MetadataRepository), Value: proto.String(repo.String())},
			},
		},
	}

	if in.RunnerHomeDir != "" {
		instance.Metadata.Items = append(instance.Metadata.Items, &computepb.Items{
			Key:   proto.String(MetadataRunnerHomeDir),
			Value: proto.String(in.RunnerHomeDir),
		})
	}

	if in.ServiceAccountID != "" {
		instance.ServiceAccounts = []*computepb.ServiceAccount{
			{
				Email:  proto.String(in.ServiceAccountID),
				Scopes: []string{"https://www.googleapis.com/auth/cloud-platform"},
			},
		}
	}

	return &computepb.InsertInstanceRequest{
		Project:          in.FolderID,
		Zone:             in.ZoneID,
		InstanceResource: instance,
	}
}

// DeleteRequest builds the request that removes the runner VM of a
// stop-mode config.
func DeleteRequest(cfg *config.Config) *computepb.DeleteInstanceRequest {
	in := cfg.Input()
	return &computepb.DeleteInstanceRequest{
		Project:  in.FolderID,
		Zone:     in.ZoneID,
		Instance: in.InstanceID,
	}
}

// MachineType returns the zonal custom machine type URL for res, with
// memory expressed in MiB.
func MachineType(zone string, res config.ResourcesSpec) string {
	return fmt.Sprintf("zones/%s/machineTypes/custom-%d-%d", zone, res.Cores, res.Memory>>20)
}

// diskSizeGB rounds a byte count up to whole GiB.
func diskSizeGB(bytes int64) int64 {
	return (bytes + gib - 1) / gib
}

// Marshal renders a request as indented JSON for previews.
func Marshal(m proto.Message) ([]byte, error) {
	return protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(m)
}
