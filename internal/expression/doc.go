// Package expression decodes marketplace buy-order expressions into
// human-readable labels.
//
// A buy order describes the items it will accept with a small boolean
// expression, for example:
//
//	FloatValue >= 0.15 and FloatValue < 0.18 and (DefIndex == 7 and PaintIndex == 282) and StatTrak == true
//
// The descriptor does not evaluate the expression. Each predicate kind is
// located independently and every match is collected, which is enough to
// describe what the order is for. Matching an expression against a concrete
// item is handled separately by Evaluator.
package expression
