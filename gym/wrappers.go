package gym

import (
	"encoding/json"
	"fmt"
	"log"
	"path"

	"github.com/zeu5/pcl-gym/util"
)

type rewardScaled struct {
	Environment
	factor float64
}

// ScaleRewards wraps an environment so that every observed reward is
// multiplied by a fixed factor.
func ScaleRewards(env Environment, factor float64) Environment {
	return &rewardScaled{Environment: env, factor: factor}
}

func (r *rewardScaled) Step(a Action) ([]float64, float64, bool) {
	obs, reward, done := r.Environment.Step(a)
	return obs, reward * r.factor, done
}

type rendered struct {
	Environment
}

// Rendered wraps an environment so that every step prints a rendering of
// the state to the terminal.
func Rendered(env Environment) Environment {
	return &rendered{Environment: env}
}

func (r *rendered) Step(a Action) ([]float64, float64, bool) {
	obs, reward, done := r.Environment.Step(a)
	if renderer, ok := r.Environment.(Renderer); ok {
		fmt.Printf("\r%s", renderer.Render())
		if done {
			fmt.Println("")
		}
	}
	return obs, reward, done
}

// EpisodeRecord is one line of the monitor's episodes.jsonl file.
type EpisodeRecord struct {
	Episode int     `json:"episode"`
	Steps   int     `json:"steps"`
	Return  float64 `json:"return"`
}

type monitored struct {
	Environment
	recordFile string

	episode     int
	steps       int
	totalReward float64
}

// Monitored wraps an environment so that every finished episode is appended
// as a json line to <dir>/episodes.jsonl.
func Monitored(env Environment, dir string) Environment {
	return &monitored{Environment: env, recordFile: path.Join(dir, "episodes.jsonl")}
}

func (m *monitored) Reset() []float64 {
	m.steps = 0
	m.totalReward = 0
	return m.Environment.Reset()
}

func (m *monitored) Step(a Action) ([]float64, float64, bool) {
	obs, reward, done := m.Environment.Step(a)
	m.steps++
	m.totalReward += reward
	if done {
		m.record()
		m.episode++
	}
	return obs, reward, done
}

func (m *monitored) record() {
	bs, err := json.Marshal(EpisodeRecord{
		Episode: m.episode,
		Steps:   m.steps,
		Return:  m.totalReward,
	})
	if err != nil {
		panic(err)
	}
	if err := util.AppendToFile(m.recordFile, string(bs)); err != nil {
		log.Printf("cannot record episode to %s: %v", m.recordFile, err)
	}
}
