package dispatcher

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/morezero/bridge-gateway/pkg/gateway"
	"github.com/morezero/bridge-gateway/pkg/memory"
	"github.com/morezero/bridge-gateway/pkg/registry"
)

const dispatcherTestPrefix = "dispatcher:dispatch_test"

type echoModule struct{}

func (echoModule) Process(_ context.Context, data map[string]any, _ []map[string]any) (map[string]any, error) {
	return map[string]any{"echo": data}, nil
}

func (echoModule) Metadata() map[string]any {
	return map[string]any{"name": "echo", "version": "1.0.0"}
}

type listStore struct {
	items []memory.Interaction
}

func (s *listStore) StoreInteraction(_ context.Context, userID string, req, resp map[string]any) error {
	s.items = append(s.items, memory.Interaction{UserID: userID, Request: req, Response: resp})
	return nil
}

func (s *listStore) GetUserHistory(context.Context, string) ([]memory.Interaction, error) {
	return s.items, nil
}

func (s *listStore) GetContext(_ context.Context, _ string, limit int) ([]memory.Interaction, error) {
	items := s.items
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func testDispatcher(t *testing.T) (*Dispatcher, *listStore) {
	t.Helper()
	store := &listStore{}
	reg := registry.Build(map[string]registry.Handler{"echo": echoModule{}}, nil, nil)
	gw := gateway.New(gateway.Params{Registry: reg, Memory: store})
	return NewDispatcher(gw), store
}

func TestDispatch_Process(t *testing.T) {
	d, _ := testDispatcher(t)

	params, _ := json.Marshal(ProcessParams{Module: "echo", Intent: "go", UserID: "u1", Data: map[string]any{"k": "v"}})
	resp := d.Dispatch(context.Background(), &CoreRequest{ID: "r1", Method: "process", Params: params})

	if !resp.Ok {
		t.Fatalf("%s - process not Ok: %+v", dispatcherTestPrefix, resp.Error)
	}
	env, ok := resp.Result.(gateway.Envelope)
	if !ok {
		t.Fatalf("%s - Result = %T, want gateway.Envelope", dispatcherTestPrefix, resp.Result)
	}
	if env.Status != gateway.StatusSuccess {
		t.Errorf("%s - Status = %q, want success", dispatcherTestPrefix, env.Status)
	}
}

func TestDispatch_ProcessHandlerFailureStillOk(t *testing.T) {
	d, _ := testDispatcher(t)

	params, _ := json.Marshal(ProcessParams{Module: "ghost", Intent: "go", UserID: "u1"})
	resp := d.Dispatch(context.Background(), &CoreRequest{ID: "r1", Method: "process", Params: params})

	// Dispatch failures live inside the envelope, not the transport frame.
	if !resp.Ok {
		t.Fatalf("%s - process must answer Ok, got %+v", dispatcherTestPrefix, resp.Error)
	}
	env := resp.Result.(gateway.Envelope)
	if env.Status != gateway.StatusError || env.Message != "Unknown module: ghost" {
		t.Errorf("%s - unexpected envelope: %+v", dispatcherTestPrefix, env)
	}
}

func TestDispatch_History(t *testing.T) {
	d, store := testDispatcher(t)
	store.items = []memory.Interaction{{UserID: "u1"}, {UserID: "u1"}}

	params, _ := json.Marshal(UserParams{UserID: "u1"})
	resp := d.Dispatch(context.Background(), &CoreRequest{ID: "r2", Method: "history", Params: params})

	if !resp.Ok {
		t.Fatalf("%s - history failed: %+v", dispatcherTestPrefix, resp.Error)
	}
	items, ok := resp.Result.([]map[string]any)
	if !ok || len(items) != 2 {
		t.Errorf("%s - Result = %v, want 2 items", dispatcherTestPrefix, resp.Result)
	}
}

func TestDispatch_UserParamValidation(t *testing.T) {
	d, _ := testDispatcher(t)

	for _, method := range []string{"history", "context"} {
		params, _ := json.Marshal(UserParams{})
		resp := d.Dispatch(context.Background(), &CoreRequest{ID: "r3", Method: method, Params: params})
		if resp.Ok || resp.Error == nil || resp.Error.Code != "INVALID_ARGUMENT" {
			t.Errorf("%s - %s without user_id = %+v, want INVALID_ARGUMENT", dispatcherTestPrefix, method, resp)
		}
	}
}

func TestDispatch_MalformedParams(t *testing.T) {
	d, _ := testDispatcher(t)

	resp := d.Dispatch(context.Background(), &CoreRequest{ID: "r4", Method: "process", Params: []byte(`{not json`)})
	if resp.Ok || resp.Error.Code != "INVALID_ARGUMENT" {
		t.Errorf("%s - malformed params = %+v, want INVALID_ARGUMENT", dispatcherTestPrefix, resp)
	}
}

func TestDispatch_Health(t *testing.T) {
	d, _ := testDispatcher(t)

	resp := d.Dispatch(context.Background(), &CoreRequest{ID: "r5", Method: "health"})
	if !resp.Ok {
		t.Fatalf("%s - health failed: %+v", dispatcherTestPrefix, resp.Error)
	}
	out, ok := resp.Result.(*gateway.HealthOutput)
	if !ok {
		t.Fatalf("%s - Result = %T, want *gateway.HealthOutput", dispatcherTestPrefix, resp.Result)
	}
	if out.Modules != 1 {
		t.Errorf("%s - Modules = %d, want 1", dispatcherTestPrefix, out.Modules)
	}
}

func TestDispatch_UnknownMethod(t *testing.T) {
	d, _ := testDispatcher(t)

	resp := d.Dispatch(context.Background(), &CoreRequest{ID: "r6", Method: "reboot"})
	if resp.Ok || resp.Error == nil || resp.Error.Code != "METHOD_NOT_FOUND" {
		t.Errorf("%s - unknown method = %+v, want METHOD_NOT_FOUND", dispatcherTestPrefix, resp)
	}
	if resp.Error != nil && resp.Error.Retryable {
		t.Errorf("%s - METHOD_NOT_FOUND must not be retryable", dispatcherTestPrefix)
	}
}
