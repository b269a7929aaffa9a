/*
Package bayesicfitting performs Bayesian nested sampling.

Given a parametric model, a dataset and an error distribution, a Sampler
estimates the evidence (the marginal likelihood) of the model and produces
weighted posterior samples of its parameters and of the hyperparameters of
the error distribution.

# Usage

	m, _ := model.NewPolynomial(1)
	u, _ := prior.NewUniform(-10, 10)
	m.SetPriors(u)

	p, err := problem.NewClassic(m, xdata, ydata)
	if err != nil {
		log.Fatal(err)
	}

	s, err := bayesicfitting.New(p,
		bayesicfitting.WithEnsemble(100),
		bayesicfitting.WithSeed(80409),
	)
	if err != nil {
		log.Fatal(err)
	}

	res, err := s.Sample(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Evidence, res.Parameters, res.StdDevs)

# Error distributions

Without WithDistribution the problem picks one (gauss with unit scale for a
classic problem). Distributions are built by name through errdis.New; a
hyperparameter given limits is fitted along with the model parameters,
otherwise it stays at its value.

# Checkpoints

WithCheckpointStore saves the ensemble and the posterior every n iterations
into a ports.CheckpointStore (memory, file or redis, optionally encrypted by
the persistence middleware). WithResume continues a run from its last save;
a resumed run ends with the same result as an uninterrupted one.

# Concurrency

A Sampler is not safe for concurrent use. WithThreads explores the walkers
replacing the discarded ones in parallel; results do not depend on the
number of threads.
*/
package bayesicfitting
