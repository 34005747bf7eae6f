package provision

import (
	"context"
	"errors"

	database "cloud.google.com/go/spanner/admin/database/apiv1"
	"cloud.google.com/go/spanner/admin/database/apiv1/databasepb"
	instance "cloud.google.com/go/spanner/admin/instance/apiv1"
	"cloud.google.com/go/spanner/admin/instance/apiv1/instancepb"
	"google.golang.org/api/option"
)

// SpannerAdmin is the subset of the instance and database admin APIs used
// during provisioning. Create and update calls block until the long-running
// operation finishes.
type SpannerAdmin interface {
	GetInstance(ctx context.Context, name string) error
	CreateInstance(ctx context.Context, req *instancepb.CreateInstanceRequest) error
	GetDatabase(ctx context.Context, name string) error
	CreateDatabase(ctx context.Context, req *databasepb.CreateDatabaseRequest) error
	GetDatabaseDDL(ctx context.Context, name string) ([]string, error)
	UpdateDatabaseDDL(ctx context.Context, name string, statements []string) error
}

// GoogleSpannerAdmin adapts the generated admin clients to SpannerAdmin.
// The clients pick up SPANNER_EMULATOR_HOST on their own.
type GoogleSpannerAdmin struct {
	instances *instance.InstanceAdminClient
	databases *database.DatabaseAdminClient
}

func NewGoogleSpannerAdmin(ctx context.Context, opts ...option.ClientOption) (*GoogleSpannerAdmin, error) {
	ic, err := instance.NewInstanceAdminClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	dc, err := database.NewDatabaseAdminClient(ctx, opts...)
	if err != nil {
		_ = ic.Close()
		return nil, err
	}
	return &GoogleSpannerAdmin{instances: ic, databases: dc}, nil
}

func (a *GoogleSpannerAdmin) GetInstance(ctx context.Context, name string) error {
	_, err := a.instances.GetInstance(ctx, &instancepb.GetInstanceRequest{Name: name})
	return err
}

func (a *GoogleSpannerAdmin) CreateInstance(ctx context.Context, req *instancepb.CreateInstanceRequest) error {
	op, err := a.instances.CreateInstance(ctx, req)
	if err != nil {
		return err
	}
	_, err = op.Wait(ctx)
	return err
}

func (a *GoogleSpannerAdmin) GetDatabase(ctx context.Context, name string) error {
	_, err := a.databases.GetDatabase(ctx, &databasepb.GetDatabaseRequest{Name: name})
	return err
}

func (a *GoogleSpannerAdmin) CreateDatabase(ctx context.Context, req *databasepb.CreateDatabaseRequest) error {
	op, err := a.databases.CreateDatabase(ctx, req)
	if err != nil {
		return err
	}
	_, err = op.Wait(ctx)
	return err
}

func (a *GoogleSpannerAdmin) GetDatabaseDDL(ctx context.Context, name string) ([]string, error) {
	resp, err := a.databases.GetDatabaseDdl(ctx, &databasepb.GetDatabaseDdlRequest{Database: name})
	if err != nil {
		return nil, err
	}
	return resp.GetStatements(), nil
}

func (a *GoogleSpannerAdmin) UpdateDatabaseDDL(ctx context.Context, name string, statements []string) error {
	op, err := a.databases.UpdateDatabaseDdl(ctx, &databasepb.UpdateDatabaseDdlRequest{
		Database:   name,
		Statements: statements,
	})
	if err != nil {
		return err
	}
	return op.Wait(ctx)
}

func (a *GoogleSpannerAdmin) Close() error {
	return errors.Join(a.instances.Close(), a.databases.Close())
}
