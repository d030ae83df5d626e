// Package metrics derives aggregate views from the tour results of a run.
//
// [Derive] folds every observation of every [tour.Result] into two maps:
//
//	derived := metrics.Derive(report.Results)
//	login := derived.ResponseTimes["POST /login"]
//	fmt.Println(login.Mean(), login.P99)
//	fmt.Println(derived.StatusCodes[200])
//
// The fold is commutative, so the outcome does not depend on the order in
// which workers finished or on how many workers there were. Observations
// without a status code (transport failures) count toward response times but
// not toward the status histogram.
package metrics
