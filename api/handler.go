package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-openapi/strfmt"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/qonduit-team/qonduit-engine/core"
	"github.com/qonduit-team/qonduit-engine/transpiler"
	"github.com/qonduit-team/qonduit-engine/unitary"
)

// verifyTolerance bounds the distance of compared unitaries after
// global-phase alignment.
const verifyTolerance = 1e-7

type Handlers struct {
	// need the container to reach the job DB and the components
	container *dig.Container
}

func NewHandlers(container *dig.Container) *Handlers {
	return &Handlers{container: container}
}

type ErrorResponse struct {
	Message string `json:"message"`
}

type ConversionRequest struct {
	Program string   `json:"program"`
	Source  string   `json:"source"`
	Target  string   `json:"target"`
	Targets []string `json:"targets"`
	Verify  bool     `json:"verify"`
}

type ConversionResponse struct {
	Source   string                  `json:"source"`
	Results  map[string]string       `json:"results"`
	Stats    transpiler.CircuitStats `json:"stats"`
	Verified map[string]bool         `json:"verified,omitempty"`
	Warnings []string                `json:"warnings,omitempty"`
}

func (h *Handlers) HandleConversion(c *gin.Context) {
	var req ConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zap.L().Error(fmt.Sprintf("Failed to bind a conversion request. Reason:%s", err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: fmt.Sprintf("invalid request body: %s", err)})
		return
	}
	if req.Program == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "program is required"})
		return
	}
	targets, err := requestedTargets(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}
	zap.L().Info(fmt.Sprintf("Received a conversion request. Source:%s, Targets:%v, Verify:%t",
		req.Source, targets, req.Verify))

	src := transpiler.Package(req.Source)
	if req.Source == "" {
		src, err = transpiler.DetectPackage(req.Program)
		if err != nil {
			respondConversionError(c, err)
			return
		}
	}
	w, err := transpiler.Wrap(src, req.Program)
	if err != nil {
		respondConversionError(c, err)
		return
	}

	resp := &ConversionResponse{
		Source:  string(w.Package()),
		Results: make(map[string]string, len(targets)),
		Stats:   transpiler.NewCircuitStats(w),
	}
	verify := req.Verify
	if verify && len(w.Params()) > 0 {
		// the unitary collaborator needs every parameter bound
		resp.Warnings = append(resp.Warnings, "verification skipped: circuit has unbound parameters")
		verify = false
	}
	if verify {
		resp.Verified = make(map[string]bool, len(targets))
	}
	for _, target := range targets {
		tw, err := w.Transpile(target)
		if err != nil {
			respondConversionError(c, err)
			return
		}
		resp.Results[string(target)] = tw.Text()
		if !verify {
			continue
		}
		same, err := unitary.CircuitsAllClose(src, req.Program, target, tw.Text(), verifyTolerance)
		if err != nil {
			respondConversionError(c, err)
			return
		}
		if !same {
			err := fmt.Errorf("unitary mismatch between %s and %s programs", src, target)
			zap.L().Error(fmt.Sprintf("Failed to verify a conversion. Reason:%s", err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Message: err.Error()})
			return
		}
		resp.Verified[string(target)] = true
	}
	zap.L().Debug(fmt.Sprintf("Converted a %s program to %d target(s)", resp.Source, len(resp.Results)))
	c.JSON(http.StatusOK, resp)
}

func requestedTargets(req *ConversionRequest) ([]transpiler.Package, error) {
	if req.Target != "" && len(req.Targets) > 0 {
		return nil, errors.New("use either target or targets, not both")
	}
	names := req.Targets
	if req.Target != "" {
		names = []string{req.Target}
	}
	if len(names) == 0 {
		return nil, errors.New("target is required")
	}
	targets := make([]transpiler.Package, len(names))
	for i, n := range names {
		targets[i] = transpiler.Package(n)
	}
	return targets, nil
}

// respondConversionError maps the conversion error taxonomy to HTTP
// statuses. An unsupported package is the caller's fault, a failed
// conversion or unitary calculation is rejected as unprocessable and
// anything else is an engine fault.
func respondConversionError(c *gin.Context, err error) {
	zap.L().Error(fmt.Sprintf("Failed to convert a circuit. Reason:%s", err))
	c.JSON(conversionStatus(err), ErrorResponse{Message: err.Error()})
}

func conversionStatus(err error) int {
	var (
		unsupported *transpiler.UnsupportedCircuitError
		conversion  *transpiler.CircuitConversionError
		calculation *transpiler.UnitaryCalculationError
	)
	switch {
	case errors.As(err, &unsupported):
		return http.StatusBadRequest
	case errors.As(err, &conversion):
		return http.StatusUnprocessableEntity
	case errors.As(err, &calculation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

type PackagesResponse struct {
	Packages []string `json:"packages"`
}

func (h *Handlers) HandlePackages(c *gin.Context) {
	supported := transpiler.Supported()
	names := make([]string, len(supported))
	for i, p := range supported {
		names[i] = string(p)
	}
	c.JSON(http.StatusOK, PackagesResponse{Packages: names})
}

type JobResponse struct {
	ID                string                 `json:"id"`
	Status            string                 `json:"status"`
	Shots             int                    `json:"shots"`
	Program           string                 `json:"program"`
	ProgramPackage    string                 `json:"program_package,omitempty"`
	TranspiledProgram string                 `json:"transpiled_program,omitempty"`
	JobType           string                 `json:"job_type"`
	Counts            core.Counts            `json:"counts,omitempty"`
	ConvertedPrograms core.ConvertedPrograms `json:"converted_programs,omitempty"`
	Message           string                 `json:"message,omitempty"`
	Created           strfmt.DateTime        `json:"created"`
	Ended             strfmt.DateTime        `json:"ended"`
}

func (h *Handlers) HandleJob(c *gin.Context) {
	jobID := c.Param("id")
	var job core.Job
	err := h.container.Invoke(
		func(d core.DBManager) error {
			var gerr error
			job, gerr = d.Get(jobID)
			return gerr
		})
	if err != nil {
		zap.L().Info(fmt.Sprintf("Failed to find a job(%s). Reason:%s", jobID, err))
		c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, toJobResponse(job.JobData()))
}

func toJobResponse(jd *core.JobData) *JobResponse {
	r := &JobResponse{
		ID:                jd.ID,
		Status:            jd.Status.String(),
		Shots:             jd.Shots,
		Program:           jd.Program,
		ProgramPackage:    jd.ProgramPackage,
		TranspiledProgram: jd.TranspiledProgram,
		JobType:           jd.JobType,
		Created:           jd.Created,
		Ended:             jd.Ended,
	}
	if jd.Result != nil {
		r.Counts = jd.Result.Counts
		r.ConvertedPrograms = jd.Result.ConvertedPrograms
		r.Message = jd.Result.Message
	}
	return r
}

type HealthResponse struct {
	Status    string `json:"status"`
	QueueSize int    `json:"queue_size"`
}

func (h *Handlers) HandleHealth(c *gin.Context) {
	var queueSize int
	err := h.container.Invoke(
		func(t core.Transpiler, s core.Scheduler) error {
			queueSize = s.GetCurrentQueueSize()
			return t.GetHealth()
		})
	if err != nil {
		zap.L().Error(fmt.Sprintf("Health check failed. Reason:%s", err))
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", QueueSize: queueSize})
}
