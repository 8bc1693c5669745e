package fabric

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Workspace is a container of items.
type Workspace struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
	CapacityID  string `json:"capacityId,omitempty"`
	Type        string `json:"type,omitempty"`
}

// Capacity is the compute a workspace runs on.
type Capacity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	SKU         string `json:"sku"`
	Region      string `json:"region"`
	State       string `json:"state"`
}

// Item is a workspace item such as a lakehouse, warehouse or eventstream.
type Item struct {
	ID          string          `json:"id"`
	DisplayName string          `json:"displayName"`
	Description string          `json:"description,omitempty"`
	Type        string          `json:"type,omitempty"`
	WorkspaceID string          `json:"workspaceId,omitempty"`
	Properties  *ItemProperties `json:"properties,omitempty"`
}

// ItemProperties carries the endpoints the lab needs from an item.
type ItemProperties struct {
	ConnectionString  string `json:"connectionString,omitempty"`
	OneLakeFilesPath  string `json:"oneLakeFilesPath,omitempty"`
	OneLakeTablesPath string `json:"oneLakeTablesPath,omitempty"`
	SQLEndpoint       *struct {
		ConnectionString string `json:"connectionString"`
	} `json:"sqlEndpointProperties,omitempty"`
}

// ConnectionString returns the SQL connection string of the item, if any.
func (i *Item) ConnectionString() string {
	if i == nil || i.Properties == nil {
		return ""
	}
	if i.Properties.ConnectionString != "" {
		return i.Properties.ConnectionString
	}
	if i.Properties.SQLEndpoint != nil {
		return i.Properties.SQLEndpoint.ConnectionString
	}
	return ""
}

type createItemRequest struct {
	DisplayName string      `json:"displayName"`
	Description string      `json:"description,omitempty"`
	Definition  *Definition `json:"definition,omitempty"`
}

func workspacePath(workspaceID, kind string) string {
	return "/workspaces/" + url.PathEscape(workspaceID) + "/" + kind
}

// ListWorkspaces returns every workspace visible to the caller.
func (c *Client) ListWorkspaces(ctx context.Context) ([]Workspace, error) {
	return list[Workspace](ctx, c, "/workspaces")
}

// FindWorkspace returns the workspace with the given display name.
func (c *Client) FindWorkspace(ctx context.Context, name string) (*Workspace, error) {
	all, err := c.ListWorkspaces(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].DisplayName == name {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("workspace %q: %w", name, ErrNotFound)
}

// CreateWorkspace creates a workspace on a capacity.
func (c *Client) CreateWorkspace(ctx context.Context, name, capacityID string) (*Workspace, error) {
	body := map[string]string{"displayName": name}
	if capacityID != "" {
		body["capacityId"] = capacityID
	}
	var ws Workspace
	if err := c.do(ctx, http.MethodPost, "/workspaces", body, &ws); err != nil {
		return nil, fmt.Errorf("failed to create workspace %q: %w", name, err)
	}
	return &ws, nil
}

func (c *Client) ListCapacities(ctx context.Context) ([]Capacity, error) {
	return list[Capacity](ctx, c, "/capacities")
}

// FindCapacity returns the capacity with the given display name.
func (c *Client) FindCapacity(ctx context.Context, name string) (*Capacity, error) {
	all, err := c.ListCapacities(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].DisplayName == name {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("capacity %q: %w", name, ErrNotFound)
}

func (c *Client) createItem(ctx context.Context, workspaceID, kind string, req createItemRequest) (*Item, error) {
	var item Item
	if err := c.do(ctx, http.MethodPost, workspacePath(workspaceID, kind), req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) CreateLakehouse(ctx context.Context, workspaceID, name string) (*Item, error) {
	return c.createItem(ctx, workspaceID, "lakehouses", createItemRequest{DisplayName: name})
}

func (c *Client) ListLakehouses(ctx context.Context, workspaceID string) ([]Item, error) {
	return list[Item](ctx, c, workspacePath(workspaceID, "lakehouses"))
}

func (c *Client) CreateWarehouse(ctx context.Context, workspaceID, name string) (*Item, error) {
	return c.createItem(ctx, workspaceID, "warehouses", createItemRequest{DisplayName: name})
}

func (c *Client) ListWarehouses(ctx context.Context, workspaceID string) ([]Item, error) {
	return list[Item](ctx, c, workspacePath(workspaceID, "warehouses"))
}
