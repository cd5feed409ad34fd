package main

import (
	"flag"
	"fmt"
	"math"

	"amclfilter/gridmap"
	"amclfilter/pf"
	"amclfilter/pose"
)

func main() {
	steps := flag.Int("steps", 10, "number of motion/sensor cycles to run")
	minSamples := flag.Int("min-samples", 200, "minimum particle count")
	maxSamples := flag.Int("max-samples", 3000, "maximum particle count")
	step := flag.Float64("step", 0.1, "true motion advance per cycle, meters")
	flag.Parse()

	f := pf.NewFilter(*minSamples, *maxSamples, 0)
	f.InitGaussian(pose.Vector{}, pose.Diag(1, 1, 0.1))

	grid := gridmap.NewGrid(200, 200, 0.25, 0, 0)
	for i := 0; i < grid.SizeX(); i++ {
		for j := 0; j < grid.SizeY(); j++ {
			grid.SetOccState(i, j, gridmap.Free)
		}
	}

	truth := 0.0
	for cycle := 0; cycle < *steps; cycle++ {
		truth += *step

		f.UpdateAction(func(_ any, set *pf.SampleSet) {
			samples := set.Samples()
			for i := range samples {
				samples[i].Pose.X += *step
			}
		}, nil)

		sq := f.UpdateSensor(func(_ any, samples []pf.Sample) float64 {
			total := 0.0
			for i := range samples {
				dx := samples[i].Pose.X - truth
				dy := samples[i].Pose.Y
				w := math.Exp(-(dx*dx + dy*dy) / (2 * 0.05 * 0.05))
				samples[i].Weight = w
				total += w
			}
			return total
		}, nil)

		f.ResampleMap(grid)

		set := f.CurrentSet()
		mean, variance := pf.CEPStats(set)
		fmt.Printf("cycle %2d: n=%d clusters=%d mean=(%.3f, %.3f) var=%.4f sumSqWeights=%.6f\n",
			cycle, set.N(), set.ClusterCount(), mean.X, mean.Y, variance, sq)
	}
}
