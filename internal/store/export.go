package store

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/wheelrail/internal/contact"
	"github.com/san-kum/wheelrail/internal/experiment"
	"github.com/san-kum/wheelrail/internal/sweep"
)

type PatchData struct {
	A             float64 `json:"a"`
	B             float64 `json:"b"`
	Area          float64 `json:"area"`
	NormalForce   float64 `json:"normal_force"`
	Penetration   float64 `json:"penetration"`
	MaxPressure   float64 `json:"max_pressure"`
	MeanPressure  float64 `json:"mean_pressure"`
	SemiAxesRatio float64 `json:"semi_axes_ratio"`
	NonElliptical bool    `json:"non_elliptical"`
	Resolution    int     `json:"resolution"`
}

type StripData struct {
	Strips      int     `json:"strips"`
	LinearFx    float64 `json:"linear_fx"`
	LinearFy    float64 `json:"linear_fy"`
	CorrectionX float64 `json:"correction_x"`
	CorrectionY float64 `json:"correction_y"`
	Blended     bool    `json:"blended"`
}

// WearData reports T-gamma in N/mm², depth in mm and volume in mm³.
type WearData struct {
	MaxTGamma  float64        `json:"max_tgamma"`
	MeanTGamma float64        `json:"mean_tgamma"`
	MaxDepth   float64        `json:"max_depth_mm"`
	Volume     float64        `json:"volume_mm3"`
	Regimes    map[string]int `json:"regimes"`
}

type ExportData struct {
	Normal     string                 `json:"normal_model"`
	Tangential string                 `json:"tangential_model"`
	Creepage   contact.Creepage       `json:"creepage"`
	Friction   float64                `json:"friction"`
	Patch      PatchData              `json:"patch"`
	Result     contact.ForceResultant `json:"result"`
	Strip      *StripData             `json:"strip,omitempty"`
	Wear       *WearData              `json:"wear,omitempty"`
	Metrics    map[string]float64     `json:"metrics,omitempty"`
	ElapsedMs  float64                `json:"elapsed_ms"`
}

// NewExportData flattens an evaluation into its exported summary. Field
// matrices are left out; the run store keeps those as CSV.
func NewExportData(res *experiment.Result, normalName, tangentialName string) ExportData {
	p := res.Patch
	data := ExportData{
		Normal:     normalName,
		Tangential: tangentialName,
		Creepage:   res.Creepage,
		Friction:   res.Solution.Friction,
		Patch: PatchData{
			A:             p.A,
			B:             p.B,
			Area:          p.Area,
			NormalForce:   p.NormalForce,
			Penetration:   p.Penetration,
			MaxPressure:   p.MaxPressure,
			MeanPressure:  p.MeanPressure,
			SemiAxesRatio: p.SemiAxesRatio,
			NonElliptical: p.NonElliptical,
			Resolution:    p.Resolution,
		},
		Result:    res.Solution.ForceResultant,
		Metrics:   res.Metrics,
		ElapsedMs: float64(res.Elapsed.Microseconds()) / 1000,
	}

	if sr := res.Solution.Strip; sr != nil {
		data.Strip = &StripData{
			Strips:      len(sr.Strips),
			LinearFx:    sr.LinearFx,
			LinearFy:    sr.LinearFy,
			CorrectionX: sr.CorrectionX,
			CorrectionY: sr.CorrectionY,
			Blended:     sr.Blended,
		}
	}

	if w := res.Wear; w != nil {
		regimes := make(map[string]int, len(w.Regimes))
		for r, n := range w.Regimes {
			regimes[r.String()] = n
		}
		data.Wear = &WearData{
			MaxTGamma:  w.MaxTGamma,
			MeanTGamma: w.MeanTGamma,
			MaxDepth:   w.MaxDepth,
			Volume:     w.Volume,
			Regimes:    regimes,
		}
	}
	return data
}

func encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeFile(path string, v any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return encode(file, v)
}

func ExportJSON(path string, res *experiment.Result, normalName, tangentialName string) error {
	return writeFile(path, NewExportData(res, normalName, tangentialName))
}

func ExportJSONStdout(res *experiment.Result, normalName, tangentialName string) error {
	return encode(os.Stdout, NewExportData(res, normalName, tangentialName))
}

func ExportCurveJSON(path string, curve *sweep.Curve) error {
	return writeFile(path, curve)
}

func ExportCurveJSONStdout(curve *sweep.Curve) error {
	return encode(os.Stdout, curve)
}
