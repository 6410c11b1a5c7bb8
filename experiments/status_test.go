package experiments

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/zeu5/pcl-gym/agents"
	"github.com/zeu5/pcl-gym/gym"
)

func TestStatusServerReportsStats(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	obsSpace := gym.BoxSpace([]float64{-1, -1}, []float64{1, 1})
	model, err := BuildModel(obsSpace, gym.DiscreteSpace(2), 8, 1, rng)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	buffer, _ := SelectReplayBuffer(false, rng)
	agent := agents.NewPCL(model, SelectOptimizer(false, 7e-4), buffer, agents.PCLConfig{
		Gamma: 0.99, Tau: 1e-2, RolloutLen: 10, Batchsize: 2, ReplayStartSize: 1 << 30,
	})

	server := NewStatusServer("127.0.0.1:0", agent)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	server.server.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status endpoint returned %d", w.Code)
	}
	var stats agents.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("status body is not valid json: %v", err)
	}
	if stats.Steps != 0 || stats.Episodes != 0 {
		t.Errorf("fresh agent should report zero counters, got %+v", stats)
	}
}
