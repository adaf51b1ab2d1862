// Package model defines the value types shared by the estimator: the form
// fields and their typed input, the reference option lists, the prediction
// result returned by the service, and the view state that presentation code
// reduces into a render model. Types here carry no behaviour beyond small
// accessors, so every other package can depend on them.
package model
