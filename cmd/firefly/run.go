package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/FIREFLY/internal/optimization"
	"github.com/copyleftdev/FIREFLY/internal/optimization/firefly"
	"github.com/copyleftdev/FIREFLY/internal/optimization/objectives"
	"github.com/copyleftdev/FIREFLY/internal/render"
)

var runFlags struct {
	n          int
	iters      int
	alpha      float64
	beta0      float64
	gamma      float64
	minimize   bool
	maximize   bool
	lower      float64
	upper      float64
	seed       int64
	plot       bool
	savePath   string
	framesPath string
	paramsPath string
}

var runCmd = &cobra.Command{
	Use:   "run <objective> <dimensions>",
	Short: "Run the Firefly Algorithm against a named objective",
	Example: `  firefly run sphere 2
  firefly run rastrigin 5 --n 40 --iters 200 --seed 42
  firefly run eggholder 2 --lower -512 --upper 512 --plot --save search.png --frames search.gif`,
	Args: cobra.ExactArgs(2),
	RunE: runOptimization,
}

func init() {
	runCmd.Flags().IntVar(&runFlags.n, "n", firefly.DefaultPopulationSize, "Population size")
	runCmd.Flags().IntVar(&runFlags.iters, "iters", firefly.DefaultIterations, "Number of iterations")
	runCmd.Flags().Float64Var(&runFlags.alpha, "alpha", firefly.DefaultAlpha, "Randomization strength")
	runCmd.Flags().Float64Var(&runFlags.beta0, "beta0", firefly.DefaultBeta0, "Attractiveness at zero distance")
	runCmd.Flags().Float64Var(&runFlags.gamma, "gamma", firefly.DefaultGamma, "Light absorption coefficient")
	runCmd.Flags().BoolVar(&runFlags.minimize, "minimize", false, "Minimize the objective (default)")
	runCmd.Flags().BoolVar(&runFlags.maximize, "maximize", false, "Maximize the objective instead of minimizing")
	runCmd.Flags().Float64Var(&runFlags.lower, "lower", firefly.DefaultLower, "Lower bound applied to every dimension")
	runCmd.Flags().Float64Var(&runFlags.upper, "upper", firefly.DefaultUpper, "Upper bound applied to every dimension")
	runCmd.Flags().Int64Var(&runFlags.seed, "seed", 0, "Random seed (0 seeds from the clock)")
	runCmd.Flags().BoolVar(&runFlags.plot, "plot", false, "Render a contour plot of the search (2D only)")
	runCmd.Flags().StringVar(&runFlags.savePath, "save", "firefly.png", "PNG file the contour plot is written to")
	runCmd.Flags().StringVar(&runFlags.framesPath, "frames", "", "Write an animation of the search to this GIF file (2D only)")
	runCmd.Flags().StringVar(&runFlags.paramsPath, "params", "", "Read hyperparameters from a YAML file")
	rootCmd.AddCommand(runCmd)
}

func runOptimization(cmd *cobra.Command, args []string) error {
	objective, err := objectives.Lookup(args[0])
	if err != nil {
		return err
	}

	dims, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("dimensions must be an integer, got %q", args[1])
	}

	rendering := runFlags.plot || runFlags.framesPath != ""
	if rendering && dims != 2 {
		return fmt.Errorf("--plot and --frames require a 2-dimensional objective, got %d dimensions", dims)
	}
	if runFlags.minimize && runFlags.maximize {
		return fmt.Errorf("--minimize and --maximize are mutually exclusive")
	}

	cfg := firefly.DefaultConfig()
	cfg.Objective = objective
	cfg.Dimensions = dims
	cfg.Maximize = runFlags.maximize
	cfg.TrackPositions = rendering

	// Params file overrides defaults, explicit flags override the file.
	if runFlags.paramsPath != "" {
		params, err := loadParams(runFlags.paramsPath)
		if err != nil {
			return err
		}
		params.apply(&cfg)
	}
	applyRunFlags(cmd, &cfg)

	opt, err := firefly.New(cfg)
	if err != nil {
		return err
	}

	logger.WithFields(map[string]interface{}{
		"objective":  strings.ToLower(args[0]),
		"dimensions": dims,
		"population": cfg.PopulationSize,
		"iterations": cfg.Iterations,
	}).Info("starting optimization")

	result, err := opt.Run(cmd.Context())
	if err != nil {
		return err
	}

	printResult(cmd, result)

	if rendering {
		renderOutputs(objective, opt.Bounds(), result)
	}
	return nil
}

// applyRunFlags copies only the flags the user set on the command line, so
// that a params file value survives unless explicitly overridden.
func applyRunFlags(cmd *cobra.Command, cfg *firefly.Config) {
	if cmd.Flags().Changed("n") {
		cfg.PopulationSize = runFlags.n
	}
	if cmd.Flags().Changed("iters") {
		cfg.Iterations = runFlags.iters
	}
	if cmd.Flags().Changed("alpha") {
		cfg.Alpha = runFlags.alpha
	}
	if cmd.Flags().Changed("beta0") {
		cfg.Beta0 = runFlags.beta0
	}
	if cmd.Flags().Changed("gamma") {
		cfg.Gamma = runFlags.gamma
	}
	if cmd.Flags().Changed("lower") {
		cfg.Lower = runFlags.lower
	}
	if cmd.Flags().Changed("upper") {
		cfg.Upper = runFlags.upper
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = runFlags.seed
	}
}

func printResult(cmd *cobra.Command, result *optimization.Result) {
	coords := make([]string, len(result.Best.Position))
	for i, x := range result.Best.Position {
		coords[i] = strconv.FormatFloat(x, 'f', 4, 64)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "best position: [%s]\n", strings.Join(coords, ", "))
	fmt.Fprintf(cmd.OutOrStdout(), "best value: %.6f\n", result.Best.Value)
}

// renderOutputs writes the requested plot files. A failed render only warns,
// the optimization result has already been reported.
func renderOutputs(objective optimization.ObjectiveFunction, bounds [][2]float64, result *optimization.Result) {
	rcfg := render.DefaultConfig()

	if runFlags.plot {
		if err := writeRender(runFlags.savePath, func(f *os.File) error {
			return render.Contour(f, objective, bounds, result.Positions, rcfg)
		}); err != nil {
			logger.WithError(err).Warn("contour plot failed")
		}
	}
	if runFlags.framesPath != "" {
		if err := writeRender(runFlags.framesPath, func(f *os.File) error {
			return render.Animate(f, objective, bounds, result.Positions, rcfg)
		}); err != nil {
			logger.WithError(err).Warn("animation failed")
		}
	}
}

func writeRender(path string, encode func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
