// Package accumulator folds archive files into two running sums: a
// time-domain sum and a frequency-domain sum.
//
// Each archive is transformed with `pam`, then either seeds both sums (the
// first archive an Accumulator sees) or is merged into them in place with
// `psradd`. The intermediate frequency artifact is removed and both sums are
// published to the output directory after every archive. Process holds an
// exclusive lock for the whole sequence, so concurrent callers are applied
// one at a time in lock acquisition order.
package accumulator
