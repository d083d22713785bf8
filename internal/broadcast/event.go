package broadcast

import (
	v1 "github.com/powergrid-labs/gridtrack/internal/api/v1"
)

// Actions carried by a ChangeEvent.
const (
	ActionAdd        = "ADD"
	ActionUpdate     = "UPDATE"
	ActionDelete     = "DELETE"
	ActionBulkUpdate = "BULK_UPDATE"
	ActionReorder    = "REORDER"
	ActionHeartbeat  = "HEARTBEAT"
)

// ChangeEvent is the wire payload pushed to stream subscribers. Only the
// fields relevant to the action are populated.
type ChangeEvent struct {
	Action     string             `json:"action"`
	Activity   *v1.Activity       `json:"activity,omitempty"`
	Activities []*v1.Activity     `json:"activities,omitempty"`
	DeletedIDs []int64            `json:"deletedIds,omitempty"`
	Files      []*v1.FileMetadata `json:"files,omitempty"`
}

func Added(a *v1.Activity, files []*v1.FileMetadata) ChangeEvent {
	return ChangeEvent{Action: ActionAdd, Activity: a, Files: files}
}

func Updated(a *v1.Activity, files []*v1.FileMetadata) ChangeEvent {
	return ChangeEvent{Action: ActionUpdate, Activity: a, Files: files}
}

func Deleted(ids []int64) ChangeEvent {
	return ChangeEvent{Action: ActionDelete, DeletedIDs: ids}
}

func BulkUpdated(activities []*v1.Activity) ChangeEvent {
	return ChangeEvent{Action: ActionBulkUpdate, Activities: activities}
}

func Reordered(activities []*v1.Activity) ChangeEvent {
	return ChangeEvent{Action: ActionReorder, Activities: activities}
}

func Heartbeat() ChangeEvent {
	return ChangeEvent{Action: ActionHeartbeat}
}
