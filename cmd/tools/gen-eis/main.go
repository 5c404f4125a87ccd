// Command gen-eis writes a synthetic EIS dataset in the DIB per-file CSV
// layout, for fixtures and pipeline smoke runs. Spectra follow a simple
// Randles-style model whose parameters drift with SoH and SOC, plus seeded
// measurement noise, so regression targets are learnable but not trivial.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/banshee-data/impedance.report/internal/eis"
)

var (
	outDir = flag.String("out", "data", "Output directory for generated CSV files")
	cells  = flag.Int("cells", 8, "Number of cells to generate")
	seed   = flag.Int64("seed", 7, "Random seed")
	noise  = flag.Float64("noise", 0.002, "Impedance noise standard deviation (ohm)")
)

var sohLevels = []int{100, 95, 90, 85, 80}
var socLevels = []int{5, 20, 35, 50, 65, 80, 95}

// Logarithmic frequency sweep, 10 mHz to 10 kHz, 10 points per decade.
func frequencyGrid() []float64 {
	var grid []float64
	for i := 0; i <= 60; i++ {
		grid = append(grid, math.Pow(10, -2+float64(i)/10))
	}
	return grid
}

func main() {
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("output dir: %v", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	grid := frequencyGrid()

	files := 0
	for cell := 1; cell <= *cells; cell++ {
		// Per-cell manufacturing spread.
		r0Base := 0.015 + 0.004*rng.Float64()
		r1Base := 0.030 + 0.008*rng.Float64()

		for _, soh := range sohLevels {
			for _, soc := range socLevels {
				key := eis.SpectrumKey{
					CellID:       cell,
					SoHPct:       soh,
					TempC:        15,
					SOCPct:       soc,
					CapacityCode: 9000 + soh*10 + soc/10,
				}
				if err := writeSpectrum(key, grid, r0Base, r1Base, rng); err != nil {
					log.Fatalf("write %s: %v", key, err)
				}
				files++
			}
		}
	}
	log.Printf("wrote %d spectra to %s", files, *outDir)
}

func writeSpectrum(key eis.SpectrumKey, grid []float64, r0Base, r1Base float64, rng *rand.Rand) error {
	// Ohmic and charge-transfer resistances grow as the cell ages; the
	// charge-transfer arc also shifts with state of charge.
	aging := 1 + 0.8*(1-float64(key.SoHPct)/100)
	socEffect := 1 + 0.3*(1-float64(key.SOCPct)/100)
	r0 := r0Base * aging
	r1 := r1Base * aging * socEffect
	tau := 0.05 * socEffect

	path := filepath.Join(*outDir, key.String()+".csv")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"frequency_hz", "z_real_ohm", "z_imag_ohm"}); err != nil {
		return err
	}
	for _, freq := range grid {
		omega := 2 * math.Pi * freq
		// R0 + R1 / (1 + j*omega*tau), plus a Warburg-like tail at low
		// frequency.
		denom := 1 + omega*omega*tau*tau
		zre := r0 + r1/denom + 0.002/math.Sqrt(omega)
		zim := -r1*omega*tau/denom - 0.002/math.Sqrt(omega)

		zre += rng.NormFloat64() * *noise
		zim += rng.NormFloat64() * *noise

		rec := []string{
			strconv.FormatFloat(freq, 'g', -1, 64),
			strconv.FormatFloat(zre, 'g', -1, 64),
			strconv.FormatFloat(zim, 'g', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return nil
}
