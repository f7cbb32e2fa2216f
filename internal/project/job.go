package project

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/piwi3910/PlateNest/internal/model"
)

// JobExtension is the file extension used for saved jobs.
const JobExtension = ".platenest.json"

// SaveJob writes a job to a JSON file, creating parent directories as needed.
func SaveJob(path string, job model.Job) error {
	return writeJSON(path, job)
}

// LoadJob reads a job from a JSON file. Missing sections fall back to the
// values of a new job, so hand-written files only need a list of objects.
func LoadJob(path string) (model.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Job{}, err
	}

	job := model.NewJob()
	if err := json.Unmarshal(data, &job); err != nil {
		return model.Job{}, fmt.Errorf("failed to parse job file: %w", err)
	}

	if job.Objects == nil {
		job.Objects = []model.Object{}
	}
	if job.Fixed == nil {
		job.Fixed = []model.Object{}
	}
	for i := range job.Fixed {
		job.Fixed[i].Fixed = true
	}
	return job, nil
}
