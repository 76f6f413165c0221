// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/walteh/copify/pkg/job"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return hasExt(filename, ".hcl")
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*File, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "copify.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Define HCL schema
	type hclCopify struct {
		Folder       string   `hcl:"folder"`
		SerumNoises  bool     `hcl:"serum_noises,optional"`
		MoveSamples  bool     `hcl:"move_samples,optional"`
		CreateBackup bool     `hcl:"create_backup,optional"`
		ExcludeFiles []string `hcl:"exclude_files,optional"`
	}
	type hclMover struct {
		Folder           string   `hcl:"folder"`
		Target           string   `hcl:"target"`
		SerumNoises      bool     `hcl:"serum_noises,optional"`
		MoveProjectFiles bool     `hcl:"move_project_files,optional"`
		MoveSamples      bool     `hcl:"move_samples,optional"`
		CreateBackup     bool     `hcl:"create_backup,optional"`
		ExcludeFiles     []string `hcl:"exclude_files,optional"`
	}
	type hclConfig struct {
		Kind   string     `hcl:"kind,optional"`
		Server string     `hcl:"server,optional"`
		Copify *hclCopify `hcl:"copify,block"`
		Mover  *hclMover  `hcl:"mover,block"`
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalContext(ctx), &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	file := &File{
		Kind:   hclCfg.Kind,
		Server: hclCfg.Server,
	}

	if c := hclCfg.Copify; c != nil {
		file.Copify = &job.CopifySettings{
			Folder:       c.Folder,
			SerumNoises:  c.SerumNoises,
			MoveSamples:  c.MoveSamples,
			CreateBackup: c.CreateBackup,
			ExcludeFiles: c.ExcludeFiles,
		}
	}

	if m := hclCfg.Mover; m != nil {
		file.Mover = &job.MoverSettings{
			Folder:           m.Folder,
			Target:           m.Target,
			SerumNoises:      m.SerumNoises,
			MoveProjectFiles: m.MoveProjectFiles,
			MoveSamples:      m.MoveSamples,
			CreateBackup:     m.CreateBackup,
			ExcludeFiles:     m.ExcludeFiles,
		}
	}

	return file, nil
}

// evalContext exposes ${home} to HCL expressions.
func evalContext(ctx context.Context) *hcl.EvalContext {
	vars := map[string]cty.Value{}
	if home, err := os.UserHomeDir(); err == nil {
		vars["home"] = cty.StringVal(home)
	} else {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("home directory unavailable to HCL")
	}
	return &hcl.EvalContext{Variables: vars}
}
