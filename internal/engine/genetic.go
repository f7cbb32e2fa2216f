package engine

import (
	"context"
	"math/rand"
	"sort"

	"github.com/piwi3910/PlateNest/internal/model"
)

// GeneticConfig holds parameters for the genetic order search.
type GeneticConfig struct {
	PopulationSize int
	Generations    int
	MutationRate   float64
	TournamentSize int
	EliteCount     int
}

// DefaultGeneticConfig returns sensible default parameters. Every evaluation
// replays the whole greedy placement, so the population stays small.
func DefaultGeneticConfig() GeneticConfig {
	return GeneticConfig{
		PopulationSize: 16,
		Generations:    24,
		MutationRate:   0.2,
		TournamentSize: 3,
		EliteCount:     2,
	}
}

// normalized clamps the population and elite sizes so every generation
// keeps at least one individual.
func (c GeneticConfig) normalized() GeneticConfig {
	c.PopulationSize = max(c.PopulationSize, 1)
	c.EliteCount = min(max(c.EliteCount, 0), c.PopulationSize)
	c.Generations = max(c.Generations, 0)
	return c
}

// chromosome is a candidate placement order: genes index into the item slice.
type chromosome struct {
	genes   []int
	fitness float64
}

// geneticSearch looks for a placement order that fits more objects than the
// largest-first order.
type geneticSearch struct {
	arranger *Arranger
	settings model.ArrangeSettings
	config   GeneticConfig
	plate    model.Plate
	base     *Grid
	items    []item
	rng      *rand.Rand

	totalArea float64
}

func newGeneticSearch(a *Arranger, base *Grid, items []item, s model.ArrangeSettings, plate model.Plate) *geneticSearch {
	var total float64
	for _, it := range items {
		total += it.object.Outline.Area()
	}
	return &geneticSearch{
		arranger:  a,
		settings:  s,
		config:    a.genetic.normalized(),
		plate:     plate,
		base:      base,
		items:     items,
		rng:       rand.New(rand.NewSource(a.seed)),
		totalArea: total,
	}
}

// arrangeGenetic runs the greedy pass first and only searches other orders
// when it leaves objects off the plate.
func (a *Arranger) arrangeGenetic(ctx context.Context, base *Grid, items []item, s model.ArrangeSettings, plate model.Plate) ([]model.Placement, error) {
	greedy, err := a.place(ctx, base.Clone(), items, s, plate)
	if err != nil || len(items) < 2 || allFit(greedy) {
		return greedy, err
	}

	g := newGeneticSearch(a, base, items, s, plate)
	best, err := g.run(ctx)
	if err != nil || best.fitness <= g.fitness(greedy) {
		return greedy, err
	}
	placements, _ := g.decode(ctx, best)
	a.logger.Debug("genetic search improved order",
		"greedy_placed", countFit(greedy),
		"placed", countFit(placements),
	)
	return placements, err
}

// run evolves the population and returns the best chromosome. On
// cancellation it stops early and returns the best one seen so far.
func (g *geneticSearch) run(ctx context.Context) (chromosome, error) {
	population := g.initPopulation()
	for i := range population {
		population[i].fitness = g.evaluate(ctx, population[i])
	}

	for gen := 0; gen < g.config.Generations; gen++ {
		sortByFitness(population)
		if err := ctx.Err(); err != nil {
			return population[0], err
		}
		if g.complete(population[0]) {
			break
		}

		newPop := make([]chromosome, 0, g.config.PopulationSize)

		eliteCount := min(g.config.EliteCount, len(population))
		for i := 0; i < eliteCount; i++ {
			newPop = append(newPop, g.copyChromosome(population[i]))
		}

		for len(newPop) < g.config.PopulationSize {
			parent1 := g.tournamentSelect(population)
			parent2 := g.tournamentSelect(population)

			child := g.orderCrossover(parent1, parent2)
			g.mutate(&child)

			child.fitness = g.evaluate(ctx, child)
			newPop = append(newPop, child)
		}
		population = newPop
	}

	sortByFitness(population)
	return population[0], ctx.Err()
}

func sortByFitness(population []chromosome) {
	sort.SliceStable(population, func(i, j int) bool {
		return population[i].fitness > population[j].fitness
	})
}

// initPopulation seeds one chromosome with the incoming order and fills the
// rest with random permutations.
func (g *geneticSearch) initPopulation() []chromosome {
	n := len(g.items)
	size := g.config.PopulationSize
	population := make([]chromosome, size)

	identity := make([]int, n)
	for i := range identity {
		identity[i] = i
	}
	population[0] = chromosome{genes: identity}

	for i := 1; i < size; i++ {
		population[i] = chromosome{genes: g.rng.Perm(n)}
	}
	return population
}

// evaluate decodes a chromosome and scores it: one point per placed object,
// plus the placed share of the total footprint area as a tie-break.
func (g *geneticSearch) evaluate(ctx context.Context, c chromosome) float64 {
	placements, _ := g.decode(ctx, c)
	return g.fitness(placements)
}

func (g *geneticSearch) fitness(placements []model.Placement) float64 {
	placed, area := 0, 0.0
	for _, p := range placements {
		if p.Fits {
			placed++
			area += p.Object.Outline.Area()
		}
	}
	return float64(placed) + area/(g.totalArea+1)
}

// complete reports whether c already places every object.
func (g *geneticSearch) complete(c chromosome) bool {
	return int(c.fitness) >= len(g.items)
}

// decode replays the greedy placement in chromosome order on a copy of the
// base grid.
func (g *geneticSearch) decode(ctx context.Context, c chromosome) ([]model.Placement, error) {
	ordered := make([]item, len(c.genes))
	for i, idx := range c.genes {
		ordered[i] = g.items[idx]
	}
	return g.arranger.place(ctx, g.base.Clone(), ordered, g.settings, g.plate)
}

// tournamentSelect picks the best individual from a random tournament.
func (g *geneticSearch) tournamentSelect(population []chromosome) chromosome {
	best := population[g.rng.Intn(len(population))]
	for i := 1; i < g.config.TournamentSize; i++ {
		candidate := population[g.rng.Intn(len(population))]
		if candidate.fitness > best.fitness {
			best = candidate
		}
	}
	return g.copyChromosome(best)
}

// orderCrossover implements Order Crossover (OX1) for permutation chromosomes.
// It preserves the relative order of genes from both parents.
func (g *geneticSearch) orderCrossover(parent1, parent2 chromosome) chromosome {
	n := len(parent1.genes)
	if n <= 2 {
		return g.copyChromosome(parent1)
	}

	point1 := g.rng.Intn(n)
	point2 := g.rng.Intn(n)
	if point1 > point2 {
		point1, point2 = point2, point1
	}

	child := chromosome{genes: make([]int, n)}

	inSegment := make([]bool, n)
	for i := point1; i <= point2; i++ {
		child.genes[i] = parent1.genes[i]
		inSegment[parent1.genes[i]] = true
	}

	childIdx := (point2 + 1) % n
	for _, gene := range parent2.genes {
		if !inSegment[gene] {
			child.genes[childIdx] = gene
			childIdx = (childIdx + 1) % n
		}
	}

	return child
}

// mutate applies random mutations to a chromosome.
func (g *geneticSearch) mutate(c *chromosome) {
	n := len(c.genes)
	if n < 2 {
		return
	}

	// Swap two genes
	if g.rng.Float64() < g.config.MutationRate {
		i := g.rng.Intn(n)
		j := g.rng.Intn(n)
		c.genes[i], c.genes[j] = c.genes[j], c.genes[i]
	}

	// Promote: move one gene to the front so it claims the centre
	if g.rng.Float64() < g.config.MutationRate {
		i := g.rng.Intn(n)
		gene := c.genes[i]
		copy(c.genes[1:i+1], c.genes[:i])
		c.genes[0] = gene
	}

	// Reverse a segment (less frequent)
	if g.rng.Float64() < g.config.MutationRate*0.5 {
		i := g.rng.Intn(n)
		j := g.rng.Intn(n)
		if i > j {
			i, j = j, i
		}
		for i < j {
			c.genes[i], c.genes[j] = c.genes[j], c.genes[i]
			i++
			j--
		}
	}
}

func (g *geneticSearch) copyChromosome(c chromosome) chromosome {
	genes := make([]int, len(c.genes))
	copy(genes, c.genes)
	return chromosome{genes: genes, fitness: c.fitness}
}

func allFit(placements []model.Placement) bool {
	return countFit(placements) == len(placements)
}

func countFit(placements []model.Placement) int {
	n := 0
	for _, p := range placements {
		if p.Fits {
			n++
		}
	}
	return n
}
