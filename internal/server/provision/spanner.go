package provision

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/spanner/admin/database/apiv1/databasepb"
	"cloud.google.com/go/spanner/admin/instance/apiv1/instancepb"
	"github.com/dmitrijs2005/kvstore/internal/logging"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// KVStoreTableDDL creates the document table with commit-timestamp columns.
const KVStoreTableDDL = `CREATE TABLE kv_store (
    id STRING(36) NOT NULL,
    data JSON NOT NULL,
    created_at TIMESTAMP NOT NULL OPTIONS (allow_commit_timestamp=true),
    updated_at TIMESTAMP NOT NULL OPTIONS (allow_commit_timestamp=true),
) PRIMARY KEY (id)`

// SpannerTarget names the resources to provision.
type SpannerTarget struct {
	Project  string
	Instance string
	Database string
	// Emulator selects the emulator instance config.
	Emulator bool
}

func (t SpannerTarget) ProjectPath() string {
	return "projects/" + t.Project
}

func (t SpannerTarget) InstancePath() string {
	return t.ProjectPath() + "/instances/" + t.Instance
}

func (t SpannerTarget) DatabasePath() string {
	return t.InstancePath() + "/databases/" + t.Database
}

func (t SpannerTarget) instanceConfig() string {
	if t.Emulator {
		return t.ProjectPath() + "/instanceConfigs/emulator-config"
	}
	return t.ProjectPath() + "/instanceConfigs/regional-us-central1"
}

// Spanner ensures the instance, the database and the kv_store table exist,
// in that order. The first failure aborts the sequence.
func Spanner(ctx context.Context, admin SpannerAdmin, target SpannerTarget, log logging.Logger) error {
	log.Info(ctx, "starting auto-provisioning checks", "database", target.DatabasePath())

	if err := ensureInstance(ctx, admin, target, log); err != nil {
		return err
	}
	if err := ensureDatabase(ctx, admin, target, log); err != nil {
		return err
	}
	if err := ensureTable(ctx, admin, target, log); err != nil {
		return err
	}

	log.Info(ctx, "auto-provisioning complete")
	return nil
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func ensureInstance(ctx context.Context, admin SpannerAdmin, target SpannerTarget, log logging.Logger) error {
	name := target.InstancePath()

	err := admin.GetInstance(ctx, name)
	if err == nil {
		log.Info(ctx, "instance already exists", "instance", name)
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("check instance %s: %w", name, err)
	}

	log.Info(ctx, "instance not found, creating", "instance", name)
	err = admin.CreateInstance(ctx, &instancepb.CreateInstanceRequest{
		Parent:     target.ProjectPath(),
		InstanceId: target.Instance,
		Instance: &instancepb.Instance{
			Name:        name,
			Config:      target.instanceConfig(),
			DisplayName: target.Instance + " instance",
			NodeCount:   1,
		},
	})
	if err != nil {
		return fmt.Errorf("create instance %s: %w", name, err)
	}

	log.Info(ctx, "instance created", "instance", name)
	return nil
}

func ensureDatabase(ctx context.Context, admin SpannerAdmin, target SpannerTarget, log logging.Logger) error {
	name := target.DatabasePath()

	err := admin.GetDatabase(ctx, name)
	if err == nil {
		log.Info(ctx, "database already exists", "database", name)
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("check database %s: %w", name, err)
	}

	log.Info(ctx, "database not found, creating", "database", name)
	err = admin.CreateDatabase(ctx, &databasepb.CreateDatabaseRequest{
		Parent:          target.InstancePath(),
		CreateStatement: "CREATE DATABASE `" + target.Database + "`",
		DatabaseDialect: databasepb.DatabaseDialect_GOOGLE_STANDARD_SQL,
	})
	if err != nil {
		return fmt.Errorf("create database %s: %w", name, err)
	}

	log.Info(ctx, "database created", "database", name)
	return nil
}

// hasKVStoreTable scans DDL for the table, quoted or not.
func hasKVStoreTable(statements []string) bool {
	for _, s := range statements {
		if strings.Contains(s, "CREATE TABLE kv_store") || strings.Contains(s, "CREATE TABLE `kv_store`") {
			return true
		}
	}
	return false
}

func ensureTable(ctx context.Context, admin SpannerAdmin, target SpannerTarget, log logging.Logger) error {
	name := target.DatabasePath()

	ddl, err := admin.GetDatabaseDDL(ctx, name)
	if err != nil {
		return fmt.Errorf("get database ddl %s: %w", name, err)
	}
	if hasKVStoreTable(ddl) {
		log.Info(ctx, "table already exists", "table", "kv_store")
		return nil
	}

	log.Info(ctx, "table not found, creating", "table", "kv_store")
	if err := admin.UpdateDatabaseDDL(ctx, name, []string{KVStoreTableDDL}); err != nil {
		return fmt.Errorf("create table kv_store: %w", err)
	}

	log.Info(ctx, "table created", "table", "kv_store")
	return nil
}
