package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/model"
)

// ErrNoCandidates is returned when a matrix is requested for the
// facility alone.
var ErrNoCandidates = errors.New("no candidate employees for matrix")

// MatrixPoint aligns one matrix index with the entity it represents.
// Index 0 is always the facility; indices 1..N are employees.
type MatrixPoint struct {
	Employee   *model.Employee // nil for the facility
	Location   model.Location
	IsFacility bool
}

// Matrix is a square distance/duration matrix over facility + employees
// together with the point map that ties indices back to entities.
type Matrix struct {
	Distances [][]float64
	Durations [][]float64
	PointMap  []MatrixPoint
}

// IndexOf returns the matrix index of the given employee, or -1.
func (m *Matrix) IndexOf(empCode string) int {
	for i, p := range m.PointMap {
		if p.Employee != nil && p.Employee.EmpCode == empCode {
			return i
		}
	}
	return -1
}

// BuildMatrix assembles the (facility + employees) point list and
// requests a square distance/duration table from the road service.
func BuildMatrix(ctx context.Context, road RoadClient, facility model.Location, emps []model.Employee) (*Matrix, error) {
	if len(emps) == 0 {
		return nil, ErrNoCandidates
	}

	pointMap := make([]MatrixPoint, 0, len(emps)+1)
	coords := make([]model.Location, 0, len(emps)+1)

	pointMap = append(pointMap, MatrixPoint{Location: facility, IsFacility: true})
	coords = append(coords, facility)
	for i := range emps {
		pointMap = append(pointMap, MatrixPoint{Employee: &emps[i], Location: emps[i].Location})
		coords = append(coords, emps[i].Location)
	}

	table, err := road.Table(ctx, coords, nil, nil)
	if err != nil {
		return nil, err
	}
	if len(table.Distances) != len(pointMap) {
		return nil, fmt.Errorf("matrix size %d does not match point map size %d",
			len(table.Distances), len(pointMap))
	}

	return &Matrix{
		Distances: table.Distances,
		Durations: table.Durations,
		PointMap:  pointMap,
	}, nil
}
