// Package solver runs the external VRP solver as a subprocess speaking
// JSON over stdio. The solver binary is treated as a black box: a
// problem document goes in on stdin and the solution comes back on
// stdout, possibly preceded or followed by log lines.
package solver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"
)

// ErrSolverFailed wraps any solver-side failure: non-zero exit, output
// that holds no JSON solution, or a solution carrying an error field.
var ErrSolverFailed = errors.New("vrp solver failed")

// ─── Problem / Solution documents ───────────────────────────

// Problem is the JSON document written to the solver's stdin. Index 0
// of both matrices is always the depot (facility).
type Problem struct {
	DistanceMatrix         [][]float64 `json:"distance_matrix"`
	DurationMatrix         [][]float64 `json:"duration_matrix"`
	NumVehicles            int         `json:"num_vehicles"`
	VehicleCapacities      []int       `json:"vehicle_capacities"`
	Demands                []int       `json:"demands"`
	DepotIndex             int         `json:"depot_index"`
	MaxRouteDuration       float64     `json:"max_route_duration"`
	ServiceTimes           []float64   `json:"service_times"`
	AllowDroppingVisits    bool        `json:"allow_dropping_visits"`
	DropVisitPenalty       int64       `json:"drop_visit_penalty"`
	FacilityCoords         []float64   `json:"facility_coords"`
	TripType               string      `json:"trip_type"`
	DirectionPenaltyWeight float64     `json:"direction_penalty_weight"`

	// Pinning controls for single-vehicle re-optimization.
	FixedStartNodeIndexInMatrix      *int  `json:"fixed_start_node_index_in_matrix,omitempty"`
	FixedEndNodeIndexInMatrix        *int  `json:"fixed_end_node_index_in_matrix,omitempty"`
	OtherCustomerNodeIndicesInMatrix []int `json:"other_customer_node_indices_in_matrix,omitempty"`
}

// VehicleRoute is one vehicle's visit sequence in the solution. Node
// indices refer to matrix rows (0 = depot).
type VehicleRoute struct {
	VehicleIndex int   `json:"vehicle_index"`
	NodeIndices  []int `json:"node_indices"`
}

// Solution is the JSON document read from the solver's stdout.
type Solution struct {
	Routes             []VehicleRoute `json:"routes"`
	DroppedNodeIndices []int          `json:"dropped_node_indices"`
	Error              string         `json:"error,omitempty"`
}

// ─── Runner ─────────────────────────────────────────────────

// Runner solves VRP problems. The process-backed implementation is
// ProcessRunner; tests substitute fakes.
type Runner interface {
	Solve(ctx context.Context, problem *Problem) (*Solution, error)
}

// ProcessRunner launches the configured solver binary per call. A
// non-zero timeout bounds each run; the engine itself imposes no limit.
type ProcessRunner struct {
	binary  string
	timeout time.Duration
	args    []string
}

// NewProcessRunner creates a runner for the given solver binary.
func NewProcessRunner(binary string, timeout time.Duration, args ...string) *ProcessRunner {
	return &ProcessRunner{binary: binary, timeout: timeout, args: args}
}

// Solve writes the problem to the solver's stdin and parses the last
// balanced JSON object from its stdout. The solver call is strictly
// sequential per batch; callers bound it with ctx.
func (r *ProcessRunner) Solve(ctx context.Context, problem *Problem) (*Solution, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	input, err := json.Marshal(problem)
	if err != nil {
		return nil, fmt.Errorf("%w: encode problem: %v", ErrSolverFailed, err)
	}

	cmd := exec.CommandContext(ctx, r.binary, r.args...)
	cmd.Stdin = bytes.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Printf("[solver] launching %s (nodes=%d vehicles=%d)",
		r.binary, len(problem.DistanceMatrix), problem.NumVehicles)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v: %s", ErrSolverFailed, err, tail(stderr.String(), 400))
	}

	solution, err := ParseSolution(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	if solution.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrSolverFailed, solution.Error)
	}
	return solution, nil
}

// ParseSolution extracts the last balanced JSON object from raw solver
// output, tolerating log lines before and after it.
func ParseSolution(raw []byte) (*Solution, error) {
	obj := lastJSONObject(raw)
	if obj == nil {
		return nil, fmt.Errorf("%w: no JSON object in output: %s", ErrSolverFailed, tail(string(raw), 400))
	}
	var solution Solution
	if err := json.Unmarshal(obj, &solution); err != nil {
		return nil, fmt.Errorf("%w: decode solution: %v", ErrSolverFailed, err)
	}
	return &solution, nil
}

// lastJSONObject scans raw for top-level {...} spans, tracking string
// and escape state so braces inside strings don't break balancing, and
// returns the last complete span.
func lastJSONObject(raw []byte) []byte {
	var (
		depth      int
		start      = -1
		inString   bool
		escaped    bool
		lastObject []byte
	)
	for i, b := range raw {
		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					lastObject = raw[start : i+1]
					start = -1
				}
			}
		}
	}
	return lastObject
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
