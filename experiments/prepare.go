package experiments

import (
	"encoding/json"
	"os"
	"path"
	"time"

	"github.com/zeu5/pcl-gym/util"
)

// PrepareOutputDir creates the run's output directory (a timestamped folder
// under results/ unless one was configured) and records the full
// configuration as args.json.
func PrepareOutputDir(config Config) (string, error) {
	dir := config.Outdir
	if dir == "" {
		dir = path.Join("results", time.Now().Format("20060102T150405"))
	}
	if err := util.EnsureDir(dir); err != nil {
		return "", err
	}
	bs, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path.Join(dir, "args.json"), bs, 0644); err != nil {
		return "", err
	}
	return dir, nil
}
