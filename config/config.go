// jobfy: a tool for generating job scripts for HLA typing pipelines.
// Copyright (c) 2024-2026 Simo Zhang.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License along with this program. If not, see
// <https://github.com/svm-zhang/jobfy/blob/master/LICENSE.txt>.

// Package config loads site profiles: TOML files carrying the default
// scheduler, resource request, and reference file locations for a
// compute environment, so they need not be repeated on every
// invocation. Command line flags override profile values.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/svm-zhang/jobfy/job"
)

// A Profile carries per-site defaults.
type Profile struct {
	Scheduler string    `toml:"scheduler"`
	Resource  Resource  `toml:"resource"`
	Reference Reference `toml:"reference"`
}

// A Resource gives the default resource request of a profile.
type Resource struct {
	Nproc int `toml:"nproc"`
	RAM   int `toml:"ram"`
}

// A Reference points at the HLA reference files of a site.
type Reference struct {
	HLARef  string `toml:"hla_ref"`
	Freq    string `toml:"freq"`
	Bed     string `toml:"bed"`
	KmerTag string `toml:"kmer_tag"`
}

// Default returns the built-in profile used when no profile file is
// given: slurm, 8 processes, 4 GiB.
func Default() Profile {
	return Profile{
		Scheduler: string(job.Slurm),
		Resource:  Resource{Nproc: 8, RAM: 4},
	}
}

// Load reads a profile from a TOML file, fills in the built-in
// defaults for omitted fields, and validates it.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("cannot read profile %v: %w", path, err)
	}
	var p Profile
	if err := toml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("cannot parse profile %v: %w", path, err)
	}
	defaults := Default()
	if p.Scheduler == "" {
		p.Scheduler = defaults.Scheduler
	}
	if p.Resource.Nproc == 0 {
		p.Resource.Nproc = defaults.Resource.Nproc
	}
	if p.Resource.RAM == 0 {
		p.Resource.RAM = defaults.Resource.RAM
	}
	if err := p.validate(); err != nil {
		return Profile{}, fmt.Errorf("invalid profile %v: %w", path, err)
	}
	return p, nil
}

func (p Profile) validate() error {
	if _, err := job.Scheduler(p.Scheduler).Suffix(); err != nil {
		return err
	}
	if p.Resource.Nproc < 1 {
		return fmt.Errorf("nproc must be at least 1, got %v", p.Resource.Nproc)
	}
	if p.Resource.RAM < 1 {
		return fmt.Errorf("ram must be at least 1, got %v", p.Resource.RAM)
	}
	return nil
}
