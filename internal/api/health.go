package api

import (
	"context"

	"vdt.ai/dashboard/internal/rpc"
)

type HealthStatus struct {
	Status string `json:"status"`
}

func HealthRouter() rpc.Router {
	return rpc.Router{
		"check": rpc.Query(func(context.Context, *rpc.Context) (HealthStatus, error) {
			return HealthStatus{Status: "ok"}, nil
		}),
	}
}
