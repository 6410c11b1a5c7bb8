package experiments

import (
	"fmt"
	"log"
	"path"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/zeu5/pcl-gym/util"
)

type scoreEntry struct {
	Steps  int
	Mean   float64
	Median float64
	Stdev  float64
}

// ScoreRecorder appends evaluation results to scores.txt in the output
// directory and can plot the score curve at the end of the run.
type ScoreRecorder struct {
	mu      sync.Mutex
	outdir  string
	entries []scoreEntry
}

func NewScoreRecorder(outdir string) *ScoreRecorder {
	if err := util.WriteToFile(path.Join(outdir, "scores.txt"), "steps\tmean\tmedian\tstdev"); err != nil {
		log.Printf("cannot create scores file in %s: %v", outdir, err)
	}
	return &ScoreRecorder{outdir: outdir}
}

func (r *ScoreRecorder) Record(steps int, mean, median, stdev float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, scoreEntry{Steps: steps, Mean: mean, Median: median, Stdev: stdev})
	if err := util.AppendToFile(path.Join(r.outdir, "scores.txt"),
		fmt.Sprintf("%d\t%f\t%f\t%f", steps, mean, median, stdev)); err != nil {
		log.Printf("cannot append to scores file in %s: %v", r.outdir, err)
	}
}

// Plot writes the mean evaluation score against training steps as a png.
func (r *ScoreRecorder) Plot() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return nil
	}

	p := plot.New()
	p.Title.Text = "Evaluation score"
	p.X.Label.Text = "Steps"
	p.Y.Label.Text = "Mean return"

	points := make(plotter.XYs, len(r.entries))
	for i, e := range r.entries {
		points[i] = plotter.XY{X: float64(e.Steps), Y: e.Mean}
	}
	line, err := plotter.NewLine(points)
	if err != nil {
		return err
	}
	line.Color = plotutil.Color(0)
	p.Add(line)
	p.Legend.Add("mean", line)
	return p.Save(8*vg.Inch, 8*vg.Inch, path.Join(r.outdir, "scores.png"))
}
