package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/wheelrail/internal/config"
	"github.com/san-kum/wheelrail/internal/contact"
	"github.com/san-kum/wheelrail/internal/experiment"
	"github.com/san-kum/wheelrail/internal/sweep"
)

const (
	KindSolve = "solve"
	KindSweep = "sweep"

	metadataFile = "metadata.json"
	fieldFile    = "field.csv"
	curveFile    = "curve.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string                 `json:"id"`
	Kind        string                 `json:"kind"`
	Timestamp   time.Time              `json:"timestamp"`
	Normal      string                 `json:"normal_model"`
	Tangential  string                 `json:"tangential_model"`
	NormalForce float64                `json:"normal_force"`
	Penetration float64                `json:"penetration,omitempty"`
	SemiAxisA   float64                `json:"semi_axis_a,omitempty"`
	SemiAxisB   float64                `json:"semi_axis_b,omitempty"`
	MaxPressure float64                `json:"max_pressure,omitempty"`
	Creepage    contact.Creepage       `json:"creepage"`
	Friction    float64                `json:"friction"`
	Axis        string                 `json:"axis,omitempty"`
	Points      int                    `json:"points,omitempty"`
	Result      contact.ForceResultant `json:"result"`
	WearVolume  float64                `json:"wear_volume_mm3,omitempty"`
	Metrics     map[string]float64     `json:"metrics"`
	Config      *config.Config         `json:"config,omitempty"`
}

// FieldRow is one in-patch grid point of a stored solve.
type FieldRow struct {
	X, Y     float64
	Pressure float64
	ShearX   float64
	ShearY   float64
	SlipX    float64
	SlipY    float64
	Adhesion bool
	TGamma   float64
}

var fieldHeader = []string{"x", "y", "pressure", "shear_x", "shear_y", "slip_x", "slip_y", "adhesion", "tgamma"}

var curveHeader = []string{"value", "fx", "fy", "mz", "adhesion", "coefficient", "blended"}

func (s *Store) newRun(kind string) (string, string, error) {
	runID := fmt.Sprintf("%s_%d", kind, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", "", err
	}
	return runID, runDir, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

// Save stores a single evaluation: metadata.json plus field.csv holding
// every in-patch grid point.
func (s *Store) Save(cfg *config.Config, res *experiment.Result, normalName, tangentialName string) (string, error) {
	runID, runDir, err := s.newRun(KindSolve)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Kind:        KindSolve,
		Timestamp:   time.Now(),
		Normal:      normalName,
		Tangential:  tangentialName,
		NormalForce: res.Patch.NormalForce,
		Penetration: res.Patch.Penetration,
		SemiAxisA:   res.Patch.A,
		SemiAxisB:   res.Patch.B,
		MaxPressure: res.Patch.MaxPressure,
		Creepage:    res.Creepage,
		Friction:    res.Solution.Friction,
		Result:      res.Solution.ForceResultant,
		Metrics:     res.Metrics,
		Config:      cfg,
	}
	if res.Wear != nil {
		meta.WearVolume = res.Wear.Volume
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, fieldFile))
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(fieldHeader); err != nil {
		return "", err
	}

	sol := res.Solution
	g := sol.Grid
	for j := 0; j < g.N; j++ {
		for i := 0; i < g.N; i++ {
			if !g.Mask[j][i] {
				continue
			}
			tg := 0.0
			if res.Wear != nil {
				tg = res.Wear.TGamma.At(j, i)
			}
			row := []string{
				formatFloat(g.X[i]),
				formatFloat(g.Y[j]),
				formatFloat(sol.Pressure.At(j, i)),
				formatFloat(sol.ShearX.At(j, i)),
				formatFloat(sol.ShearY.At(j, i)),
				formatFloat(sol.SlipX.At(j, i)),
				formatFloat(sol.SlipY.At(j, i)),
				strconv.FormatBool(sol.Adhesion[j][i]),
				formatFloat(tg),
			}
			if err := w.Write(row); err != nil {
				return "", err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

// SaveCurve stores a creep curve: metadata.json plus curve.csv.
func (s *Store) SaveCurve(cfg *config.Config, curve *sweep.Curve) (string, error) {
	runID, runDir, err := s.newRun(KindSweep)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Kind:        KindSweep,
		Timestamp:   time.Now(),
		Normal:      curve.Normal,
		Tangential:  curve.Tangential,
		NormalForce: curve.NormalForce,
		Creepage:    curve.Base,
		Friction:    curve.Friction,
		Axis:        curve.Axis,
		Points:      len(curve.Points),
		Metrics:     curve.Metrics,
		Config:      cfg,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, curveFile))
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(curveHeader); err != nil {
		return "", err
	}
	for _, p := range curve.Points {
		row := []string{
			formatFloat(p.Value),
			formatFloat(p.Forces.Fx),
			formatFloat(p.Forces.Fy),
			formatFloat(p.Forces.Mz),
			formatFloat(p.Forces.AdhesionArea),
			formatFloat(p.Coefficient),
			strconv.FormatBool(p.Blended),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

// List returns stored runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 1 {
		return nil, nil
	}
	return records[1:], nil
}

func parseFloats(record []string, n int) ([]float64, error) {
	if len(record) < n {
		return nil, fmt.Errorf("short record: %d fields, want %d", len(record), n)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(record[i], 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// LoadField reads the field.csv of a solve run.
func (s *Store) LoadField(runID string) ([]FieldRow, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, fieldFile))
	if err != nil {
		return nil, err
	}

	rows := make([]FieldRow, 0, len(records))
	for i, rec := range records {
		if len(rec) < len(fieldHeader) {
			return nil, fmt.Errorf("field row %d: %d fields", i+1, len(rec))
		}
		v, err := parseFloats(rec, 7)
		if err != nil {
			return nil, fmt.Errorf("field row %d: %w", i+1, err)
		}
		adh, err := strconv.ParseBool(rec[7])
		if err != nil {
			return nil, fmt.Errorf("field row %d: %w", i+1, err)
		}
		tg, err := strconv.ParseFloat(rec[8], 64)
		if err != nil {
			return nil, fmt.Errorf("field row %d: %w", i+1, err)
		}
		rows = append(rows, FieldRow{
			X: v[0], Y: v[1], Pressure: v[2],
			ShearX: v[3], ShearY: v[4], SlipX: v[5], SlipY: v[6],
			Adhesion: adh, TGamma: tg,
		})
	}
	return rows, nil
}

// LoadCurve reads the curve.csv of a sweep run.
func (s *Store) LoadCurve(runID string) ([]sweep.Point, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, curveFile))
	if err != nil {
		return nil, err
	}

	points := make([]sweep.Point, 0, len(records))
	for i, rec := range records {
		v, err := parseFloats(rec, 6)
		if err != nil {
			return nil, fmt.Errorf("curve row %d: %w", i+1, err)
		}
		blended := len(rec) > 6 && rec[6] == "true"
		points = append(points, sweep.Point{
			Value:       v[0],
			Forces:      contact.ForceResultant{Fx: v[1], Fy: v[2], Mz: v[3], AdhesionArea: v[4]},
			Coefficient: v[5],
			Blended:     blended,
		})
	}
	return points, nil
}
