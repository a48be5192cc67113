package logger

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

type sourceStat struct {
	fetches int64
	bytes   int64
}

var (
	warnCounts  sync.Map // map[string]*int64
	errorCounts sync.Map // map[string]*int64
	sourceStats sync.Map // map[string]*sourceStat
)

func recordWarn(component string) {
	v, _ := warnCounts.LoadOrStore(component, new(int64))
	atomic.AddInt64(v.(*int64), 1)
}

func recordError(component string) {
	v, _ := errorCounts.LoadOrStore(component, new(int64))
	atomic.AddInt64(v.(*int64), 1)
}

// RecordFetch tracks a completed upstream fetch for the run summary.
func RecordFetch(source string, size int) {
	v, _ := sourceStats.LoadOrStore(source, &sourceStat{})
	st := v.(*sourceStat)
	atomic.AddInt64(&st.fetches, 1)
	atomic.AddInt64(&st.bytes, int64(size))
}

// PublishRunSummary logs collection statistics for the finished run and, when
// CloudWatch is initialised, publishes them as metrics.
func PublishRunSummary(ctx context.Context, log *Log, opportunities, warnings int) {
	fields := Fields{
		"opportunities": opportunities,
		"warnings":      warnings,
	}

	sourceData := map[string]map[string]int64{}
	sourceStats.Range(func(k, v any) bool {
		name := k.(string)
		st := v.(*sourceStat)
		sourceData[name] = map[string]int64{
			"fetches": atomic.LoadInt64(&st.fetches),
			"bytes":   atomic.LoadInt64(&st.bytes),
		}
		return true
	})
	fields["sources"] = sourceData

	log.WithComponent("report").WithFields(fields).Info("run summary")

	data := []cwtypes.MetricDatum{
		{MetricName: aws.String("OpportunitiesFound"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(opportunities))},
		{MetricName: aws.String("RunWarnings"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(warnings))},
	}

	for name, stats := range sourceData {
		data = append(data,
			cwtypes.MetricDatum{
				MetricName: aws.String("SourceFetches"),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Source"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["fetches"])),
			},
			cwtypes.MetricDatum{
				MetricName: aws.String("SourceBytes"),
				Unit:       cwtypes.StandardUnitBytes,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Source"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["bytes"])),
			},
		)
	}

	publishMetrics(ctx, data)
}
