// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package v2

import "github.com/prometheus/client_golang/prometheus"

var (
	projectionDeriveCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mo",
			Subsystem: "projection",
			Name:      "derive_total",
			Help:      "Total number of projection derivations.",
		}, []string{"type", "result"})
	ProjectionDeriveNormalSuccessCounter    = projectionDeriveCounter.WithLabelValues("normal", "success")
	ProjectionDeriveAggregateSuccessCounter = projectionDeriveCounter.WithLabelValues("aggregate", "success")
	ProjectionDeriveMinMaxSuccessCounter    = projectionDeriveCounter.WithLabelValues("minmax", "success")
	ProjectionDeriveFailedCounter           = projectionDeriveCounter.WithLabelValues("definition", "failed")
	ProjectionDeriveMinMaxFailedCounter     = projectionDeriveCounter.WithLabelValues("minmax", "failed")

	projectionCollectionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mo",
			Subsystem: "projection",
			Name:      "collection_op_total",
			Help:      "Total number of projection collection mutations.",
		}, []string{"type"})
	ProjectionAddCounter     = projectionCollectionCounter.WithLabelValues("add")
	ProjectionRemoveCounter  = projectionCollectionCounter.WithLabelValues("remove")
	ProjectionReplaceCounter = projectionCollectionCounter.WithLabelValues("replace")
	ProjectionParseCounter   = projectionCollectionCounter.WithLabelValues("parse")

	projectionCalculateRowsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mo",
			Subsystem: "projection",
			Name:      "calculate_rows_total",
			Help:      "Total number of rows produced by projection calculation.",
		}, []string{"kind"})
	ProjectionCalculateNormalRowsCounter    = projectionCalculateRowsCounter.WithLabelValues("normal")
	ProjectionCalculateAggregateRowsCounter = projectionCalculateRowsCounter.WithLabelValues("aggregate")

	projectionCalculateDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mo",
			Subsystem: "projection",
			Name:      "calculate_duration_seconds",
			Help:      "Bucketed histogram of projection calculation duration.",
			Buckets:   getDurationBuckets(),
		}, []string{"step"})
	ProjectionCalculateDurationHistogram        = projectionCalculateDurationHistogram.WithLabelValues("calculate")
	ProjectionCalculateBatchesDurationHistogram = projectionCalculateDurationHistogram.WithLabelValues("calculate-batches")
	ProjectionCompileDurationHistogram          = projectionCalculateDurationHistogram.WithLabelValues("compile")

	ProjectionCompileStepsHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mo",
			Subsystem: "projection",
			Name:      "compile_steps",
			Help:      "Bucketed histogram of the number of steps in a compiled expression pipeline.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		})
)
