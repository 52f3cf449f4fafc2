package models

import "time"

// InstanceInfo describes a running depotcast process registered in etcd
type InstanceInfo struct {
	ID          string    `json:"id"`
	HTTPAddress string    `json:"http_address"`
	GRPCAddress string    `json:"grpc_address,omitempty"`
	Version     string    `json:"version"`
	StartedAt   time.Time `json:"started_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
