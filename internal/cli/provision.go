package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fourthcoffee/fc-commerce/internal/fabric"
	"github.com/fourthcoffee/fc-commerce/internal/logging"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create the lab workspace, lakehouse and warehouse",
	Long: `Resolve the lab workspace by name, creating it on the configured
capacity when it does not exist, then make sure the lakehouse and the
warehouse exist. The resulting IDs are written to fabric-guids.txt.

Example:
  az login
  FABRIC_WORKSPACE_NAME=CommerceAnalytics fc-commerce provision`,
	RunE: runProvision,
}

func runProvision(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateFabric(); err != nil {
		return err
	}

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	client, err := newFabricClient()
	if err != nil {
		return err
	}
	ids := fabric.ResourceIDs{
		WorkspaceName: cfg.Fabric.WorkspaceName,
		Items:         map[string]string{},
		GeneratedAt:   time.Now(),
	}

	ws, err := client.FindWorkspace(ctx, cfg.Fabric.WorkspaceName)
	switch {
	case errors.Is(err, fabric.ErrNotFound):
		if cfg.Fabric.CapacityName == "" {
			return fmt.Errorf("workspace %q does not exist and no capacity name is configured (set FABRIC_CAPACITY_NAME)",
				cfg.Fabric.WorkspaceName)
		}
		capacity, err := client.FindCapacity(ctx, cfg.Fabric.CapacityName)
		if err != nil {
			return err
		}
		logging.Info().
			Str("workspace", cfg.Fabric.WorkspaceName).
			Str("capacity", capacity.DisplayName).
			Msg("Creating workspace")
		ws, err = client.CreateWorkspace(ctx, cfg.Fabric.WorkspaceName, capacity.ID)
		if err != nil {
			return err
		}
		ids.CapacityID = capacity.ID
	case err != nil:
		return err
	default:
		ids.CapacityID = ws.CapacityID
	}
	ids.WorkspaceID = ws.ID

	lakehouse, created, err := fabric.FindOrCreate(ctx, cfg.Fabric.LakehouseName,
		func(ctx context.Context) (*fabric.Item, error) {
			return client.CreateLakehouse(ctx, ws.ID, cfg.Fabric.LakehouseName)
		},
		func(ctx context.Context) ([]fabric.Item, error) {
			return client.ListLakehouses(ctx, ws.ID)
		})
	if err != nil {
		return fmt.Errorf("failed to ensure lakehouse: %w", err)
	}
	logItem("Lakehouse", lakehouse, created)
	ids.Items["Lakehouse"] = lakehouse.ID

	wh, created, err := fabric.FindOrCreate(ctx, cfg.Fabric.WarehouseName,
		func(ctx context.Context) (*fabric.Item, error) {
			return client.CreateWarehouse(ctx, ws.ID, cfg.Fabric.WarehouseName)
		},
		func(ctx context.Context) ([]fabric.Item, error) {
			return client.ListWarehouses(ctx, ws.ID)
		})
	if err != nil {
		return fmt.Errorf("failed to ensure warehouse: %w", err)
	}
	logItem("Warehouse", wh, created)
	ids.Items["Warehouse"] = wh.ID

	if err := fabric.WriteResourceIDs(cfg.Fabric.IDsFile, ids); err != nil {
		return err
	}

	cmd.Printf("Workspace: %s (%s)\n", ws.DisplayName, ws.ID)
	cmd.Printf("Lakehouse: %s (%s)\n", lakehouse.DisplayName, lakehouse.ID)
	cmd.Printf("Warehouse: %s (%s)\n", wh.DisplayName, wh.ID)
	if cs := wh.ConnectionString(); cs != "" {
		cmd.Printf("Warehouse SQL endpoint: %s\n", cs)
	}
	cmd.Printf("IDs written to %s\n", cfg.Fabric.IDsFile)
	return nil
}

// newFabricClient authorizes with FABRIC_TOKEN when set, otherwise with the
// Azure CLI login.
func newFabricClient() (*fabric.Client, error) {
	cred, err := fabric.NewCredential(cfg.Fabric)
	if err != nil {
		return nil, err
	}
	return fabric.NewClient(cfg.Fabric, cred), nil
}

func logItem(kind string, item *fabric.Item, created bool) {
	action := "Found"
	if created {
		action = "Created"
	}
	logging.Info().
		Str("kind", kind).
		Str("name", item.DisplayName).
		Str("id", item.ID).
		Msg(action + " item")
}
