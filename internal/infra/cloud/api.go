// Package cloud provides the managed-database resource API boundary.
package cloud

import (
	"context"
	"errors"
)

var (
	// ErrInstanceNotFound is returned when the remote system has no
	// instance with the requested identifier.
	ErrInstanceNotFound = errors.New("instance not found")
)

// InstanceStatus is the remote lifecycle status of a managed instance.
// Transitions happen only on the remote side; locally it is a snapshot.
type InstanceStatus string

const (
	StatusCreating               InstanceStatus = "creating"
	StatusBackingUp              InstanceStatus = "backing-up"
	StatusModifying              InstanceStatus = "modifying"
	StatusAvailable              InstanceStatus = "available"
	StatusDeleting               InstanceStatus = "deleting"
	StatusFailed                 InstanceStatus = "failed"
	StatusStorageFull            InstanceStatus = "storage-full"
	StatusIncompatibleOptions    InstanceStatus = "incompatible-option-group"
	StatusIncompatibleParameters InstanceStatus = "incompatible-parameters"
	StatusIncompatibleRestore    InstanceStatus = "incompatible-restore"
	StatusIncompatibleNetwork    InstanceStatus = "incompatible-network"
)

// Deletable reports whether an instance in this status accepts a delete
// request. Transitional statuses (creating, deleting, ...) do not.
func (s InstanceStatus) Deletable() bool {
	switch s {
	case StatusAvailable, StatusFailed, StatusStorageFull,
		StatusIncompatibleOptions, StatusIncompatibleParameters,
		StatusIncompatibleRestore, StatusIncompatibleNetwork:
		return true
	default:
		return false
	}
}

// Failed reports whether the status is a terminal error state from which
// the instance will never become available.
func (s InstanceStatus) Failed() bool {
	switch s {
	case StatusFailed, StatusStorageFull, StatusIncompatibleOptions,
		StatusIncompatibleParameters, StatusIncompatibleRestore,
		StatusIncompatibleNetwork:
		return true
	default:
		return false
	}
}

// DBInstance is a point-in-time view of one provisioned instance.
// Endpoint and Port are populated only once the instance is available.
type DBInstance struct {
	ID       string         `json:"id"`
	Status   InstanceStatus `json:"status"`
	Endpoint string         `json:"endpoint,omitempty"`
	Port     int            `json:"port,omitempty"`
}

// CreateInstanceInput carries everything the remote create call needs.
type CreateInstanceInput struct {
	ID                 string
	InstanceClass      string
	AllocatedStorage   int32
	Engine             string
	EngineVersion      string
	MasterUsername     string
	MasterPassword     string
	ParameterGroupName string
	SecurityGroups     []string
	BackupRetention    int32
	BackupWindow       string
}

// API is the cloud resource-management surface the orchestrator consumes.
// Implementations must be safe for concurrent use by one worker per
// variant.
type API interface {
	// CreateInstance submits a create request and returns the initial
	// handle. The request runs to completion remotely regardless of
	// local cancellation.
	CreateInstance(ctx context.Context, in CreateInstanceInput) (*DBInstance, error)

	// DescribeInstance re-queries a single instance by identifier.
	DescribeInstance(ctx context.Context, id string) (*DBInstance, error)

	// ListInstances returns every live instance visible to the account.
	ListInstances(ctx context.Context) ([]*DBInstance, error)

	// DeleteInstance requests deletion, skipping the final snapshot.
	DeleteInstance(ctx context.Context, id string) error

	// CreateParameterGroup registers a named, empty configuration group.
	CreateParameterGroup(ctx context.Context, name, family, description string) error

	// DescribeParameters returns one page of the group's parameter
	// catalog: the parameter names on the page and the continuation
	// marker for the next page ("" when exhausted).
	DescribeParameters(ctx context.Context, group, marker string) (names []string, nextMarker string, err error)

	// ModifyParameter overrides a single parameter value in the group,
	// applied immediately.
	ModifyParameter(ctx context.Context, group, name, value string) error

	// DeleteParameterGroup removes a configuration group. Fails remotely
	// while a live instance still references it.
	DeleteParameterGroup(ctx context.Context, name string) error
}
