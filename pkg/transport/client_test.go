package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	return NewClient(server.URL, 5*time.Second), server
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func TestInvoke_Success(t *testing.T) {
	defer goleak.VerifyNone(t)

	var gotPath, gotID string
	var gotBody map[string]interface{}
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotID = r.Header.Get("X-Request-ID")
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		writeJSON(t, w, map[string]interface{}{
			"outcome": "SUCCESS",
			"results": []interface{}{
				map[string]interface{}{"class": "UIButton", "label": "Login"},
			},
		})
	})
	defer server.Close()
	defer client.Close()

	reply, err := client.Invoke(context.Background(), "query", Args{
		"query":       "button marked:'Login'",
		"projections": []interface{}{},
	})
	require.NoError(t, err)

	assert.Equal(t, "/query", gotPath)
	assert.NotEmpty(t, gotID)
	assert.Equal(t, "button marked:'Login'", gotBody["query"])

	require.Equal(t, 1, reply.Value.Len())
	d, ok := reply.Value.First().Descriptor()
	require.True(t, ok)
	label, _ := d.String("label")
	assert.Equal(t, "Login", label)
}

func TestInvoke_Embeds(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{
			"outcome": "SUCCESS",
			"results": "/shots/screenshot_0.png",
			"embeds": []interface{}{
				map[string]interface{}{"path": "/shots/screenshot_0.png", "type": "image/png", "name": "screenshot"},
				"ignored",
			},
		})
	})
	defer server.Close()

	reply, err := client.Invoke(context.Background(), "screenshot_embed", Args{"prefix": "/shots/"})
	require.NoError(t, err)
	require.Len(t, reply.Embeds, 1)
	assert.Equal(t, Embed{Path: "/shots/screenshot_0.png", Type: "image/png", Name: "screenshot"}, reply.Embeds[0])
}

func TestInvoke_RemoteFailure(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{
			"outcome": "FAILURE",
			"reason":  "No view found matching query",
			"details": "button marked:'Nope'",
		})
	})
	defer server.Close()

	_, err := client.Invoke(context.Background(), "touch", Args{"query": "button marked:'Nope'"})
	require.Error(t, err)

	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "touch", remote.Op)
	assert.Equal(t, "No view found matching query", remote.Reason)
	assert.Contains(t, err.Error(), "button marked:'Nope'")
}

func TestInvoke_HTTPErrorStatus(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})
	defer server.Close()

	_, err := client.Invoke(context.Background(), "flash", nil)
	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusBadGateway, remote.Status)
	assert.Equal(t, "upstream exploded", remote.Reason)
}

func TestInvoke_InvalidJSON(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})
	defer server.Close()

	_, err := client.Invoke(context.Background(), "server_version", nil)
	require.Error(t, err)
	var remote *RemoteError
	assert.False(t, errors.As(err, &remote), "local parse failure must not look remote")
}

func TestInvoke_MarshalErrorBeforeIO(t *testing.T) {
	var hits int32
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	})
	defer server.Close()

	_, err := client.Invoke(context.Background(), "touch", Args{
		"query":    "view",
		"callback": make(chan int),
	})

	var marshal *MarshalError
	require.True(t, errors.As(err, &marshal))
	assert.Equal(t, "callback", marshal.Arg)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestInvoke_ConnectionRefused(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", time.Second)

	_, err := client.Invoke(context.Background(), "server_version", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send request")
}

func TestInvoke_SingleFlight(t *testing.T) {
	var inFlight, maxSeen int32
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			m := atomic.LoadInt32(&maxSeen)
			if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		writeJSON(t, w, map[string]interface{}{"outcome": "SUCCESS", "results": true})
	})
	defer server.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Invoke(context.Background(), "element_exists", Args{"query": "view"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxSeen))
}

func TestInvoke_CancelledWhileQueued(t *testing.T) {
	release := make(chan struct{})
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeJSON(t, w, map[string]interface{}{"outcome": "SUCCESS"})
	})
	defer server.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = client.Invoke(context.Background(), "touch", Args{"query": "a"})
	}()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.Invoke(ctx, "touch", Args{"query": "b"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	<-done
}

func TestClose(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected after close")
	})
	defer server.Close()

	require.NoError(t, client.Close())
	_, err := client.Invoke(context.Background(), "touch", nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRemoteError_Message(t *testing.T) {
	assert.Equal(t, "server error 500", (&RemoteError{Status: 500}).Error())
	assert.Equal(t, "boom\nline 3", (&RemoteError{Reason: "boom", Details: "line 3"}).Error())
}
