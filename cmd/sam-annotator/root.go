package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	samannotator "github.com/menta2k/sam-annotator"
	"github.com/menta2k/sam-annotator/internal/config"
	"github.com/menta2k/sam-annotator/pkg/annotation"
	"github.com/menta2k/sam-annotator/pkg/samhttp"
	"github.com/menta2k/sam-annotator/pkg/types"
)

type rootOptions struct {
	configPath string
	serverURL  string
	model      string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:     "sam-annotator",
		Short:   "Point-prompt annotation and sequence propagation for SAM segmentation servers",
		Version: samannotator.Version,
		Long: `sam-annotator annotates one reference image with positive/negative point
prompts for one or more objects, then propagates that annotation across the
whole image folder through a SAM segmentation server, writing one label file
and one predicted image per frame.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: "+config.GetConfigPath()+")")
	cmd.PersistentFlags().StringVar(&opts.serverURL, "url", "", "segmentation server URL (default: from config)")
	cmd.PersistentFlags().StringVar(&opts.model, "model", "", "model name (default: from config)")

	cmd.AddCommand(newSegmentCommand(opts))
	cmd.AddCommand(newBatchCommand(opts))
	cmd.AddCommand(newInfoCommand(opts))
	return cmd
}

// loadConfig resolves the effective configuration from file and flags.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.LoadFromFile(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if o.serverURL != "" {
		cfg.Engine.URL = o.serverURL
	}
	if o.model != "" {
		cfg.Engine.Model = o.model
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newAnnotator builds the session coordinator against the configured engine.
func (o *rootOptions) newAnnotator() (*samannotator.Annotator, *config.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	engine, err := samhttp.NewClientWithConfig(cfg.Engine.URL, samhttp.Config{
		Model:      cfg.Engine.Model,
		Confidence: cfg.Engine.Confidence,
		ImageSize:  cfg.Engine.ImageSize,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create engine client: %w", err)
	}

	return samannotator.NewWithConfig(engine, cfg), cfg, nil
}

// applyPoints loads point specs of the form "obj:x,y" into the session.
// Objects are created as needed so sparse object indices work.
func applyPoints(ann *samannotator.Annotator, positive, negative []string) error {
	maxIndex := -1
	parse := func(spec string) (int, types.Point, error) {
		objPart, coordPart, found := strings.Cut(spec, ":")
		if !found {
			// No object prefix: the point belongs to object 0.
			objPart, coordPart = "0", spec
		}
		obj, err := strconv.Atoi(objPart)
		if err != nil || obj < 0 {
			return 0, types.Point{}, fmt.Errorf("invalid object index in point %q", spec)
		}
		xs, ys, found := strings.Cut(coordPart, ",")
		if !found {
			return 0, types.Point{}, fmt.Errorf("invalid point %q (expected obj:x,y)", spec)
		}
		x, err := strconv.Atoi(strings.TrimSpace(xs))
		if err != nil {
			return 0, types.Point{}, fmt.Errorf("invalid x coordinate in point %q", spec)
		}
		y, err := strconv.Atoi(strings.TrimSpace(ys))
		if err != nil {
			return 0, types.Point{}, fmt.Errorf("invalid y coordinate in point %q", spec)
		}
		return obj, types.Point{X: x, Y: y}, nil
	}

	type parsed struct {
		obj  int
		sign annotation.Sign
		pt   types.Point
	}
	var all []parsed
	for _, spec := range positive {
		obj, pt, err := parse(spec)
		if err != nil {
			return err
		}
		all = append(all, parsed{obj, annotation.Positive, pt})
		if obj > maxIndex {
			maxIndex = obj
		}
	}
	for _, spec := range negative {
		obj, pt, err := parse(spec)
		if err != nil {
			return err
		}
		all = append(all, parsed{obj, annotation.Negative, pt})
		if obj > maxIndex {
			maxIndex = obj
		}
	}

	for ann.Store().ObjectCount() <= maxIndex {
		ann.Store().AddObject()
	}
	for _, p := range all {
		if err := ann.Store().AddPointAt(p.obj, p.sign, p.pt); err != nil {
			return err
		}
	}
	return nil
}
