package api

import (
	"context"

	"vdt.ai/dashboard/internal/model"
	"vdt.ai/dashboard/internal/rpc"
	"vdt.ai/dashboard/internal/service"
)

type WhoAmIResult struct {
	User *model.User `json:"user"`
}

func AuthRouter(identity service.IdentityResolver) rpc.Router {
	return rpc.Router{
		"whoAmI": rpc.Query(func(ctx context.Context, rc *rpc.Context) (WhoAmIResult, error) {
			user, err := identity.Resolve(ctx, rc)
			if err != nil {
				return WhoAmIResult{}, err
			}
			return WhoAmIResult{User: user}, nil
		}),
	}
}
