// Package config holds the experiment description shared by the CLI and
// configuration files.
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/cwbudde/regressionfit/internal/fit"
	"github.com/cwbudde/regressionfit/internal/opt"
)

// Experiment describes one comparison: the generating model, the
// synthetic design, the search box and each optimizer's hyperparameters.
type Experiment struct {
	Truth       Truth       `yaml:"truth"`
	Data        Data        `yaml:"data"`
	Bounds      Bounds      `yaml:"bounds"`
	GA          GA          `yaml:"ga"`
	PSO         PSO         `yaml:"pso"`
	Mayfly      Mayfly      `yaml:"mayfly"`
	Convergence Convergence `yaml:"convergence"`

	// Workers bounds the goroutines evaluating one generation or iteration
	Workers int `yaml:"workers" validate:"gte=1"`
}

type Truth struct {
	Intercept float64 `yaml:"intercept" validate:"finite"`
	Slope     float64 `yaml:"slope" validate:"finite"`
	Sigma     float64 `yaml:"sigma" validate:"finite,gt=0"`
}

type Data struct {
	N    int     `yaml:"n" validate:"gte=3"`
	XMin float64 `yaml:"x_min" validate:"finite"`
	XMax float64 `yaml:"x_max" validate:"finite,gtfield=XMin"`
	Seed uint64  `yaml:"seed"`
}

// Bounds is the search box in (intercept, slope, sigma) order.
type Bounds struct {
	Lower []float64 `yaml:"lower" validate:"len=3,dive,finite"`
	Upper []float64 `yaml:"upper" validate:"len=3,dive,finite"`
}

type GA struct {
	Enabled        bool    `yaml:"enabled"`
	PopulationSize int     `yaml:"population" validate:"gte=2"`
	Generations    int     `yaml:"generations" validate:"gte=1"`
	Seed           int64   `yaml:"seed"`
	TournamentSize int     `yaml:"tournament" validate:"gte=1,ltefield=PopulationSize"`
	CrossoverRate  float64 `yaml:"crossover_rate" validate:"gte=0,lte=1"`
	MutationRate   float64 `yaml:"mutation_rate" validate:"gte=0,lte=1"`
	MutationScale  float64 `yaml:"mutation_scale" validate:"gt=0,lte=1"`
}

type PSO struct {
	Enabled         bool    `yaml:"enabled"`
	Particles       int     `yaml:"particles" validate:"gte=1"`
	Iterations      int     `yaml:"iterations" validate:"gte=1"`
	Seed            int64   `yaml:"seed"`
	Inertia         float64 `yaml:"inertia" validate:"finite,gte=0"`
	Cognitive       float64 `yaml:"cognitive" validate:"finite,gte=0"`
	Social          float64 `yaml:"social" validate:"finite,gte=0"`
	InitialVelocity float64 `yaml:"initial_velocity" validate:"gte=0,lte=1"`
	MaxVelocity     float64 `yaml:"max_velocity" validate:"gt=0,lte=1"`
}

type Mayfly struct {
	Enabled        bool  `yaml:"enabled"`
	PopulationSize int   `yaml:"population" validate:"gte=20"`
	Iterations     int   `yaml:"iterations" validate:"gte=1"`
	Seed           int64 `yaml:"seed"`
}

type Convergence struct {
	Enabled   bool    `yaml:"enabled"`
	Patience  int     `yaml:"patience" validate:"gte=1"`
	Threshold float64 `yaml:"threshold" validate:"finite,gte=0"`
}

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("finite", isFinite); err != nil {
		panic(err)
	}
}

func isFinite(fl validator.FieldLevel) bool {
	v := fl.Field().Float()
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Default returns the reference experiment: 1000 observations of
// y = 1.345 + 4.876x + N(0, sqrt(273)) with GA and PSO enabled.
func Default() Experiment {
	truth := fit.DefaultTruth()
	gen := fit.DefaultGenerator()
	ga := opt.DefaultGAConfig()
	pso := opt.DefaultPSOConfig()
	conv := opt.DefaultConvergenceConfig()

	return Experiment{
		Truth: Truth{Intercept: truth.Intercept, Slope: truth.Slope, Sigma: truth.Sigma},
		Data:  Data{N: gen.N, XMin: gen.XMin, XMax: gen.XMax, Seed: gen.Seed},
		Bounds: Bounds{
			Lower: []float64{-10, 0, 0},
			Upper: []float64{10, 10, 40},
		},
		GA: GA{
			Enabled:        true,
			PopulationSize: ga.PopulationSize,
			Generations:    ga.Generations,
			Seed:           ga.Seed,
			TournamentSize: ga.TournamentSize,
			CrossoverRate:  ga.CrossoverRate,
			MutationRate:   ga.MutationRate,
			MutationScale:  ga.MutationScale,
		},
		PSO: PSO{
			Enabled:         true,
			Particles:       pso.Particles,
			Iterations:      pso.Iterations,
			Seed:            pso.Seed,
			Inertia:         pso.Inertia,
			Cognitive:       pso.Cognitive,
			Social:          pso.Social,
			InitialVelocity: pso.InitialVelocity,
			MaxVelocity:     pso.MaxVelocity,
		},
		Mayfly: Mayfly{
			Enabled:        false,
			PopulationSize: 20,
			Iterations:     500,
			Seed:           42,
		},
		Convergence: Convergence{
			Enabled:   conv.Enabled,
			Patience:  conv.Patience,
			Threshold: conv.Threshold,
		},
		Workers: 1,
	}
}

// Load reads a YAML experiment from path. Keys absent from the file keep
// their Default values; unknown keys are rejected.
func Load(path string) (Experiment, error) {
	exp := Default()

	f, err := os.Open(path)
	if err != nil {
		return exp, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&exp); err != nil && !errors.Is(err, io.EOF) {
		return exp, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := exp.Validate(); err != nil {
		return exp, fmt.Errorf("config %s: %w", path, err)
	}
	return exp, nil
}

// Write stores e as YAML at path.
func (e Experiment) Write(path string) error {
	data, err := yaml.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks every field and that the bounds form a valid box.
func (e Experiment) Validate() error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("invalid experiment: %w", err)
	}
	if _, err := e.SearchBounds(); err != nil {
		return err
	}
	if !e.GA.Enabled && !e.PSO.Enabled && !e.Mayfly.Enabled {
		return errors.New("invalid experiment: no optimizer enabled")
	}
	return nil
}

// TruthParams returns the generating parameters.
func (e Experiment) TruthParams() fit.Params {
	return fit.Params{Intercept: e.Truth.Intercept, Slope: e.Truth.Slope, Sigma: e.Truth.Sigma}
}

// Generator returns the synthetic design.
func (e Experiment) Generator() fit.GeneratorConfig {
	return fit.GeneratorConfig{N: e.Data.N, XMin: e.Data.XMin, XMax: e.Data.XMax, Seed: e.Data.Seed}
}

// SearchBounds returns the validated search box.
func (e Experiment) SearchBounds() (opt.Bounds, error) {
	return opt.NewBounds(e.Bounds.Lower, e.Bounds.Upper)
}

func (e Experiment) convergence() opt.ConvergenceConfig {
	return opt.ConvergenceConfig{
		Enabled:   e.Convergence.Enabled,
		Patience:  e.Convergence.Patience,
		Threshold: e.Convergence.Threshold,
	}
}

// GAConfig converts the GA section.
func (e Experiment) GAConfig() opt.GAConfig {
	return opt.GAConfig{
		PopulationSize: e.GA.PopulationSize,
		Generations:    e.GA.Generations,
		Seed:           e.GA.Seed,
		TournamentSize: e.GA.TournamentSize,
		CrossoverRate:  e.GA.CrossoverRate,
		MutationRate:   e.GA.MutationRate,
		MutationScale:  e.GA.MutationScale,
		Workers:        e.Workers,
		Convergence:    e.convergence(),
	}
}

// PSOConfig converts the PSO section.
func (e Experiment) PSOConfig() opt.PSOConfig {
	return opt.PSOConfig{
		Particles:       e.PSO.Particles,
		Iterations:      e.PSO.Iterations,
		Seed:            e.PSO.Seed,
		Inertia:         e.PSO.Inertia,
		Cognitive:       e.PSO.Cognitive,
		Social:          e.PSO.Social,
		InitialVelocity: e.PSO.InitialVelocity,
		MaxVelocity:     e.PSO.MaxVelocity,
		Workers:         e.Workers,
		Convergence:     e.convergence(),
	}
}

// MayflyConfig converts the Mayfly section.
func (e Experiment) MayflyConfig() opt.MayflyConfig {
	return opt.MayflyConfig{
		Iterations:     e.Mayfly.Iterations,
		PopulationSize: e.Mayfly.PopulationSize,
		Seed:           e.Mayfly.Seed,
	}
}

// Optimizers builds every enabled optimizer in GA, PSO, Mayfly order.
func (e Experiment) Optimizers(opts ...opt.Option) ([]opt.Optimizer, error) {
	var out []opt.Optimizer
	if e.GA.Enabled {
		ga, err := opt.NewGA(e.GAConfig(), opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, ga)
	}
	if e.PSO.Enabled {
		pso, err := opt.NewPSO(e.PSOConfig(), opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, pso)
	}
	if e.Mayfly.Enabled {
		m, err := opt.NewMayfly(e.MayflyConfig())
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
