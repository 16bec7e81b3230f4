package job

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML job list. Each YAML document is one job record;
// records without a kind tag are auto-detected. Any invalid record fails
// the whole load, so configuration errors surface before retrieval starts.
func LoadFile(reg *Registry, path string) ([]Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	jobs, err := Load(reg, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return jobs, nil
}

// Load reads a YAML job list from r.
func Load(reg *Registry, r io.Reader) ([]Job, error) {
	dec := yaml.NewDecoder(r)
	var jobs []Job
	for i := 1; ; i++ {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("job %d: %w", i, err)
		}
		if len(rec) == 0 {
			continue
		}
		j, err := reg.Unserialize(rec)
		if err != nil {
			return nil, fmt.Errorf("job %d: %w", i, err)
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// SaveFile writes jobs back to a YAML job list, one document per job.
func SaveFile(path string, jobs []Job) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	for _, j := range jobs {
		if err := enc.Encode(j.Serialize()); err != nil {
			return err
		}
	}
	return enc.Close()
}
