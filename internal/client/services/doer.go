package services

import (
	"context"

	"github.com/Grupo-Cloud/frontend/internal/client/api"
)

// Doer is the part of *api.Client the services need.
type Doer interface {
	Do(ctx context.Context, req *api.Request) (*api.Response, error)
}

func doJSON(ctx context.Context, d Doer, req *api.Request, out any) error {
	resp, err := d.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}
