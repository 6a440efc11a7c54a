package slam

// rmhcSearch runs a random-mutation hill climb on the scan-to-map cost,
// starting from the given pose. Candidate poses are Gaussian mutations of
// the pose the current epoch started from. Every candidate that does not
// lower the cost counts toward the budget; once more than a third of the
// budget is spent and the epoch has improved on its starting cost, the
// search restarts from the running best with the count reset and the
// mutation deviations halved. The search ends when the count reaches
// maxIter.
func rmhcSearch(
	rng *zigguratSource,
	m *logOddsMap,
	scan *Scan,
	start Position,
	sigmaXYMM, sigmaThetaDeg float64,
	maxIter int,
) Position {
	best := start
	lastBest := start
	lowest := m.distanceScanToMap(scan, start)
	lastLowest := lowest
	sigmaXY := sigmaXYMM
	sigmaTheta := sigmaThetaDeg

	counter := 0
	for counter < maxIter {
		cand := Position{
			XMM:      rng.NormalAt(lastBest.XMM, sigmaXY),
			YMM:      rng.NormalAt(lastBest.YMM, sigmaXY),
			ThetaDeg: rng.NormalAt(lastBest.ThetaDeg, sigmaTheta),
		}
		c := m.distanceScanToMap(scan, cand)
		if c > -1 && c < lowest {
			lowest = c
			best = cand
		} else {
			counter++
		}
		if counter > maxIter/3 && lowest < lastLowest {
			lastBest = best
			lastLowest = lowest
			counter = 0
			sigmaXY *= 0.5
			sigmaTheta *= 0.5
		}
	}
	return best
}
