// Package tools implements the core-facing tool surface spec §6 describes:
// store_memory, search_memories, get_projects, get_project_sessions,
// get_insights, get_coding_patterns. Each handler validates its input,
// calls into the store/embedding/pipeline packages, and returns a single
// text result or an isError result — the same contract an MCP transport
// (an external collaborator per spec §1) would forward verbatim.
package tools

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/devmemory/learning-engine/pkg/embedding"
	"github.com/devmemory/learning-engine/pkg/pipeline"
	"github.com/devmemory/learning-engine/pkg/shared/logging"
	"github.com/devmemory/learning-engine/pkg/store"
)

// Result is the uniform tool-call response: either a text payload or an
// error flagged via IsError, never both.
type Result struct {
	Text    string `json:"text"`
	IsError bool   `json:"isError,omitempty"`
}

func textResult(text string) Result { return Result{Text: text} }

func errorResult(err error) Result { return Result{Text: err.Error(), IsError: true} }

// Surface wires the tool handlers to their collaborators: the store for
// persistence/reads, the embedding client for vectorizing content, and the
// pipeline controller for the onMemoryAdded real-time hook.
type Surface struct {
	st       *store.Pool
	emb      *embedding.Client
	pipe     *pipeline.Controller
	validate *validator.Validate
	logger   *logrus.Logger
}

// New builds a Surface. A nil logger is replaced with a discard logger.
func New(st *store.Pool, emb *embedding.Client, pipe *pipeline.Controller, logger *logrus.Logger) *Surface {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Surface{st: st, emb: emb, pipe: pipe, validate: validator.New(), logger: logger}
}

func (s *Surface) fields(tool string) logging.Fields {
	return logging.NewFields().Component("tools").Operation(tool)
}

// jsonOrFallback renders v as indented JSON text, the shape every handler
// below returns its result as. A marshal failure (which shouldn't happen
// for these plain maps/slices) falls back to Go's %+v so the tool still
// returns something rather than an opaque error.
func jsonOrFallback(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sprintFallback(v)
	}
	return string(b)
}

func sprintFallback(v any) string {
	return fmt.Sprintf("%+v", v)
}
