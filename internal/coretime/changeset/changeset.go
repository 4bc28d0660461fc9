// Package changeset stages the effects of one public operation so they
// commit as a single unit. External transfers and local bookkeeping are
// recorded as apply/revert pairs; if any step fails, every step already
// applied is reverted in reverse order and the original error is returned.
package changeset

// Step is one effect of an operation. Apply performs it; Revert undoes it.
// Revert may be nil for effects that cannot fail after validation and need
// no compensation (pure local map writes reverted by earlier steps' state).
type Step struct {
	Apply  func() error
	Revert func()
}

// Changeset is an ordered list of staged steps.
type Changeset struct {
	steps []Step
}

// New returns an empty changeset.
func New() *Changeset {
	return &Changeset{}
}

// Stage appends a fallible step with a compensating revert.
func (c *Changeset) Stage(apply func() error, revert func()) {
	c.steps = append(c.steps, Step{Apply: apply, Revert: revert})
}

// StageLocal appends an infallible local mutation with its revert.
func (c *Changeset) StageLocal(apply func(), revert func()) {
	c.steps = append(c.steps, Step{
		Apply:  func() error { apply(); return nil },
		Revert: revert,
	})
}

// Commit applies all staged steps in order. On the first failure it reverts
// the already-applied steps in reverse order and returns the failure; the
// enclosing operation then observes no mutation at all.
func (c *Changeset) Commit() error {
	for i, step := range c.steps {
		if err := step.Apply(); err != nil {
			for j := i - 1; j >= 0; j-- {
				if c.steps[j].Revert != nil {
					c.steps[j].Revert()
				}
			}
			return err
		}
	}
	return nil
}
