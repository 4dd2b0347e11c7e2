package visibility

import "errors"

// ErrNoEvaluator is reported when a field carries an expression but no
// evaluator was configured.
var ErrNoEvaluator = errors.New("visibility: no expression evaluator configured")
