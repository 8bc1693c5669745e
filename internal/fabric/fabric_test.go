package fabric

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"

	"github.com/fourthcoffee/fc-commerce/internal/config"
)

func newTestClient(t *testing.T, mux *http.ServeMux) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig().Fabric
	cfg.BaseURL = srv.URL + "/v1"
	cfg.Token = "test-token"
	cfg.PollInterval = time.Millisecond
	cfg.PollTimeout = 5 * time.Second

	cred, err := NewCredential(cfg)
	if err != nil {
		t.Fatalf("NewCredential failed: %v", err)
	}
	c := NewClient(cfg, cred, WithClientOptions(policy.ClientOptions{
		InsecureAllowCredentialWithHTTP: true,
		Retry:                           policy.RetryOptions{MaxRetries: -1},
	}))
	return c, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListWorkspacesPaginates(t *testing.T) {
	mux := http.NewServeMux()
	var srvURL string
	mux.HandleFunc("GET /v1/workspaces", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("Expected bearer token, got %q", r.Header.Get("Authorization"))
		}
		if r.URL.Query().Get("continuationToken") == "" {
			writeJSON(w, http.StatusOK, map[string]any{
				"value":           []Workspace{{ID: "ws1", DisplayName: "One"}},
				"continuationUri": srvURL + "/v1/workspaces?continuationToken=abc",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"value": []Workspace{{ID: "ws2", DisplayName: "CommerceAnalytics"}},
		})
	})
	c, srv := newTestClient(t, mux)
	srvURL = srv.URL

	all, err := c.ListWorkspaces(context.Background())
	if err != nil {
		t.Fatalf("ListWorkspaces failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 workspaces, got %d", len(all))
	}

	ws, err := c.FindWorkspace(context.Background(), "CommerceAnalytics")
	if err != nil || ws.ID != "ws2" {
		t.Errorf("Expected ws2, got %+v, %v", ws, err)
	}
	if _, err := c.FindWorkspace(context.Background(), "Missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCreateWarehouseFollowsOperation(t *testing.T) {
	mux := http.NewServeMux()
	var srvURL string
	var polls atomic.Int32

	mux.HandleFunc("POST /v1/workspaces/ws1/warehouses", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["displayName"] != "fc_commerce_wh" {
			t.Errorf("Unexpected displayName %q", body["displayName"])
		}
		w.Header().Set("Location", srvURL+"/v1/operations/op1")
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("GET /v1/operations/op1", func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 2 {
			writeJSON(w, http.StatusOK, map[string]string{"status": "Running"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "Succeeded"})
	})
	mux.HandleFunc("GET /v1/operations/op1/result", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"id":          "wh1",
			"displayName": "fc_commerce_wh",
			"properties":  map[string]string{"connectionString": "wh1.datawarehouse.example.net"},
		})
	})
	c, srv := newTestClient(t, mux)
	srvURL = srv.URL

	item, err := c.CreateWarehouse(context.Background(), "ws1", "fc_commerce_wh")
	if err != nil {
		t.Fatalf("CreateWarehouse failed: %v", err)
	}
	if item.ID != "wh1" {
		t.Errorf("Expected wh1, got %s", item.ID)
	}
	if item.ConnectionString() != "wh1.datawarehouse.example.net" {
		t.Errorf("Unexpected connection string %q", item.ConnectionString())
	}
	if polls.Load() != 2 {
		t.Errorf("Expected 2 polls, got %d", polls.Load())
	}
}

func TestOperationFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		result  http.HandlerFunc
		lro     bool
	}{
		{
			name: "status endpoint broken",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "boom"})
			},
			lro: true,
		},
		{
			name: "operation failed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{
					"status": "Failed",
					"error":  map[string]string{"errorCode": "ItemDisplayNameAlreadyInUse", "message": "taken"},
				})
			},
		},
		{
			name: "result endpoint broken",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]string{"status": "Succeeded"})
			},
			result: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "boom"})
			},
			lro: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			var srvURL string
			mux.HandleFunc("POST /v1/workspaces/ws1/lakehouses", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Location", srvURL+"/v1/operations/op9")
				w.WriteHeader(http.StatusAccepted)
			})
			mux.HandleFunc("GET /v1/operations/op9", tt.handler)
			if tt.result != nil {
				mux.HandleFunc("GET /v1/operations/op9/result", tt.result)
			}
			c, srv := newTestClient(t, mux)
			srvURL = srv.URL

			_, err := c.CreateLakehouse(context.Background(), "ws1", "lh")
			if err == nil {
				t.Fatal("Expected error")
			}
			if IsLROStatusError(err) != tt.lro {
				t.Errorf("Expected LRO status error %v, got %v", tt.lro, err)
			}
			var opErr *OperationError
			if !tt.lro && (!errors.As(err, &opErr) || opErr.ErrorCode != "ItemDisplayNameAlreadyInUse") {
				t.Errorf("Expected OperationError, got %v", err)
			}
		})
	}
}

func TestAPIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/capacities", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"errorCode": "TokenExpired",
			"message":   "Access token has expired",
		})
	})
	c, _ := newTestClient(t, mux)

	_, err := c.ListCapacities(context.Background())
	var respErr *azcore.ResponseError
	if !errors.As(err, &respErr) {
		t.Fatalf("Expected ResponseError, got %v", err)
	}
	if respErr.StatusCode != http.StatusUnauthorized || respErr.ErrorCode != "TokenExpired" {
		t.Errorf("Unexpected error %+v", respErr)
	}
}

func TestOperationTimeout(t *testing.T) {
	mux := http.NewServeMux()
	var srvURL string
	mux.HandleFunc("POST /v1/workspaces/ws1/lakehouses", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", srvURL+"/v1/operations/slow")
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("GET /v1/operations/slow", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "Running"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	srvURL = srv.URL

	cfg := config.DefaultConfig().Fabric
	cfg.BaseURL = srv.URL + "/v1"
	cfg.Token = "test-token"
	cfg.PollInterval = 10 * time.Millisecond
	cfg.PollTimeout = 100 * time.Millisecond
	cred, _ := NewCredential(cfg)
	c := NewClient(cfg, cred, WithClientOptions(policy.ClientOptions{InsecureAllowCredentialWithHTTP: true}))

	_, err := c.CreateLakehouse(context.Background(), "ws1", "lh")
	if !errors.Is(err, ErrLROStatus) {
		t.Errorf("Expected ErrLROStatus, got %v", err)
	}
}

func TestNewCredential(t *testing.T) {
	cfg := config.DefaultConfig().Fabric
	cfg.Token = "pre-issued"
	cred, err := NewCredential(cfg)
	if err != nil {
		t.Fatalf("NewCredential failed: %v", err)
	}
	tok, err := cred.GetToken(context.Background(), policy.TokenRequestOptions{Scopes: []string{Scope}})
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	if tok.Token != "pre-issued" {
		t.Errorf("Expected pre-issued, got %s", tok.Token)
	}

	cfg.Token = ""
	cfg.TenantID = "00000000-0000-0000-0000-000000000000"
	if _, err := NewCredential(cfg); err != nil {
		t.Errorf("Expected CLI credential, got %v", err)
	}
}

func TestRequiresTLSForCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/workspaces", func(w http.ResponseWriter, r *http.Request) {
		t.Error("Request should not be sent over plain HTTP")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig().Fabric
	cfg.BaseURL = srv.URL + "/v1"
	cfg.Token = "test-token"
	cred, _ := NewCredential(cfg)
	c := NewClient(cfg, cred)

	if _, err := c.ListWorkspaces(context.Background()); err == nil {
		t.Error("Expected error sending a token over plain HTTP")
	}
}

func TestEnsureItem(t *testing.T) {
	ctx := context.Background()
	listed := []Item{{ID: "x1", DisplayName: "other"}, {ID: "wh9", DisplayName: "fc_commerce_wh"}}
	list := func(context.Context) ([]Item, error) { return listed, nil }

	tests := []struct {
		name    string
		create  CreateFunc
		list    ListFunc
		wantID  string
		wantErr error
	}{
		{
			name:   "created",
			create: func(context.Context) (*Item, error) { return &Item{ID: "new"}, nil },
			list:   list,
			wantID: "new",
		},
		{
			name: "lro failure recovered",
			create: func(context.Context) (*Item, error) {
				return nil, errors.New("Azure.RequestFailedException: Failure getting LRO status")
			},
			list:   list,
			wantID: "wh9",
		},
		{
			name: "lro sentinel recovered",
			create: func(context.Context) (*Item, error) {
				return nil, ErrLROStatus
			},
			list:   list,
			wantID: "wh9",
		},
		{
			name:    "lro failure not listed",
			create:  func(context.Context) (*Item, error) { return nil, ErrLROStatus },
			list:    func(context.Context) ([]Item, error) { return nil, nil },
			wantErr: ErrLROStatus,
		},
		{
			name:    "other error",
			create:  func(context.Context) (*Item, error) { return nil, ErrNotFound },
			list:    func(context.Context) ([]Item, error) { t.Error("list should not be called"); return nil, nil },
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := EnsureItem(ctx, "fc_commerce_wh", tt.create, tt.list)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("EnsureItem failed: %v", err)
			}
			if item.ID != tt.wantID {
				t.Errorf("Expected %s, got %s", tt.wantID, item.ID)
			}
		})
	}
}

func TestFindOrCreate(t *testing.T) {
	ctx := context.Background()
	created := false
	create := func(context.Context) (*Item, error) { created = true; return &Item{ID: "n1", DisplayName: "lh"}, nil }

	item, isNew, err := FindOrCreate(ctx, "lh", create, func(context.Context) ([]Item, error) {
		return []Item{{ID: "e1", DisplayName: "lh"}}, nil
	})
	if err != nil || isNew || item.ID != "e1" || created {
		t.Errorf("Expected existing e1, got %+v new=%v err=%v", item, isNew, err)
	}

	item, isNew, err = FindOrCreate(ctx, "lh", create, func(context.Context) ([]Item, error) { return nil, nil })
	if err != nil || !isNew || item.ID != "n1" {
		t.Errorf("Expected new n1, got %+v new=%v err=%v", item, isNew, err)
	}
}

func TestEventstreamSetup(t *testing.T) {
	dir := t.TempDir()
	defPath := filepath.Join(dir, "eventstream.json")
	definition := `{"sources":[{"name":"LocalStreamSource","type":"CustomEndpoint"}]}`
	if err := os.WriteFile(defPath, []byte(definition), 0o644); err != nil {
		t.Fatal(err)
	}

	part, err := InlineDefinition(defPath)
	if err != nil {
		t.Fatalf("InlineDefinition failed: %v", err)
	}
	if part.Path != "eventstream.json" || part.PayloadType != PayloadInlineBase64 {
		t.Errorf("Unexpected part %+v", part)
	}
	decoded, _ := base64.StdEncoding.DecodeString(part.Payload)
	if string(decoded) != definition {
		t.Errorf("Payload does not round trip: %s", decoded)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/workspaces/ws1/eventstreams", func(w http.ResponseWriter, r *http.Request) {
		var req createItemRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Definition == nil || len(req.Definition.Parts) != 1 {
			t.Errorf("Expected one definition part, got %+v", req.Definition)
		}
		writeJSON(w, http.StatusCreated, Item{ID: "es1", DisplayName: req.DisplayName})
	})
	mux.HandleFunc("GET /v1/workspaces/ws1/eventstreams/es1/topology", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Topology{Sources: []TopologyNode{
			{ID: "src0", Name: "Other"},
			{ID: "src1", Name: "LocalStreamSource", Type: "CustomEndpoint"},
		}})
	})
	mux.HandleFunc("GET /v1/workspaces/ws1/eventstreams/es1/sources/src1/connection", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, SourceConnection{
			EventHubName: "es_abc",
			AccessKeys: AccessKeys{
				PrimaryConnectionString: "Endpoint=sb://ns.servicebus.windows.net/;SharedAccessKeyName=key;SharedAccessKey=secret;EntityPath=es_abc",
			},
		})
	})
	c, _ := newTestClient(t, mux)
	ctx := context.Background()

	es, err := c.CreateEventstream(ctx, "ws1", "sample-pos-event-stream", part)
	if err != nil {
		t.Fatalf("CreateEventstream failed: %v", err)
	}
	topo, err := c.GetEventstreamTopology(ctx, "ws1", es.ID)
	if err != nil {
		t.Fatalf("GetEventstreamTopology failed: %v", err)
	}
	src, err := topo.Source("LocalStreamSource")
	if err != nil {
		t.Fatalf("Source lookup failed: %v", err)
	}
	if _, err := topo.Source("Nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	conn, err := c.GetSourceConnection(ctx, "ws1", es.ID, src.ID)
	if err != nil {
		t.Fatalf("GetSourceConnection failed: %v", err)
	}
	if conn.EventHubName != "es_abc" || !strings.Contains(conn.AccessKeys.PrimaryConnectionString, "EntityPath=es_abc") {
		t.Errorf("Unexpected connection %+v", conn)
	}

	if _, err := InlineDefinition(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing definition")
	}
}

func TestWriteResourceIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fabric-guids.txt")
	err := WriteResourceIDs(path, ResourceIDs{
		WorkspaceName: "CommerceAnalytics",
		WorkspaceID:   "ws1",
		Items:         map[string]string{"Warehouse": "wh1", "Lakehouse": "lh1"},
		GeneratedAt:   time.Date(2025, 10, 21, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("WriteResourceIDs failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	text := string(data)
	for _, want := range []string{"Workspace ID: ws1", "Lakehouse ID: lh1", "Warehouse ID: wh1", "2025-10-21T00:00:00Z"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in %s", want, text)
		}
	}
	if strings.Index(text, "Lakehouse") > strings.Index(text, "Warehouse") {
		t.Error("Expected items sorted by name")
	}
}
