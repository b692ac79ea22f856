// Package awsspot fetches spot prices for EC2 GPU instances and converts
// them to per-GPU hourly offers.
package awsspot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"github.com/gpu-yield/price-feed/pkg/models/domain"
	"github.com/gpu-yield/price-feed/pkg/providers"
)

const (
	rateLimit = 10 * time.Second

	// spotPriceBatchSize keeps DescribeSpotPriceHistory requests small
	// enough to avoid API timeouts.
	spotPriceBatchSize = 10

	// maxProductDescriptions bounds how many platform variants the batched
	// queries walk before giving up on a region.
	maxProductDescriptions = 2

	// maxRegionsWithData stops the region sweep once enough markets have
	// answered.
	maxRegionsWithData = 2
)

// DefaultRegions are swept in order until enough of them return data.
var DefaultRegions = []string{"us-east-1", "us-west-2", "eu-west-1", "us-east-2", "ap-southeast-1"}

var spotProductDescriptions = []string{
	"Linux/UNIX",
	"Linux/UNIX (Amazon VPC)",
	"SUSE Linux",
	"SUSE Linux (Amazon VPC)",
	"Red Hat Enterprise Linux",
	"Red Hat Enterprise Linux (Amazon VPC)",
}

type gpuInstance struct {
	instanceType string
	gpu          string
	count        int
	memoryGB     int
}

// gpuInstances lists every EC2 GPU instance type the adapter queries with
// its GPU model, GPU count and total GPU memory, grouped by family.
var gpuInstances = []gpuInstance{
	// G4dn - T4
	{"g4dn.xlarge", "T4", 1, 16},
	{"g4dn.2xlarge", "T4", 1, 16},
	{"g4dn.4xlarge", "T4", 1, 16},
	{"g4dn.8xlarge", "T4", 1, 16},
	{"g4dn.12xlarge", "T4", 4, 64},
	{"g4dn.16xlarge", "T4", 1, 16},

	// G4ad - AMD
	{"g4ad.xlarge", "Radeon Pro V520", 1, 8},
	{"g4ad.2xlarge", "Radeon Pro V520", 1, 8},
	{"g4ad.4xlarge", "Radeon Pro V520", 1, 8},
	{"g4ad.8xlarge", "Radeon Pro V520", 2, 16},
	{"g4ad.16xlarge", "Radeon Pro V520", 4, 32},

	// G5 - A10G
	{"g5.xlarge", "A10G", 1, 24},
	{"g5.2xlarge", "A10G", 1, 24},
	{"g5.4xlarge", "A10G", 1, 24},
	{"g5.8xlarge", "A10G", 1, 24},
	{"g5.12xlarge", "A10G", 4, 96},
	{"g5.16xlarge", "A10G", 1, 24},
	{"g5.24xlarge", "A10G", 4, 96},
	{"g5.48xlarge", "A10G", 8, 192},

	// P3 - V100
	{"p3.2xlarge", "V100", 1, 16},
	{"p3.8xlarge", "V100", 4, 64},
	{"p3.16xlarge", "V100", 8, 128},
	{"p3dn.24xlarge", "V100", 8, 256},

	// P4 - A100
	{"p4d.24xlarge", "A100", 8, 320},
	{"p4de.24xlarge", "A100", 8, 640},

	// P5 - H100
	{"p5.48xlarge", "H100", 8, 640},

	// P2 - K80
	{"p2.xlarge", "K80", 1, 12},
	{"p2.8xlarge", "K80", 8, 96},
	{"p2.16xlarge", "K80", 16, 192},

	// G3 - M60
	{"g3.4xlarge", "M60", 1, 8},
	{"g3.8xlarge", "M60", 2, 16},
	{"g3.16xlarge", "M60", 4, 32},
	{"g3s.xlarge", "M60", 1, 8},
}

var instanceGPUByType = func() map[string]gpuInstance {
	m := make(map[string]gpuInstance, len(gpuInstances))
	for _, g := range gpuInstances {
		m[g.instanceType] = g
	}
	return m
}()

var instanceTypes = func() []string {
	names := make([]string, len(gpuInstances))
	for i, g := range gpuInstances {
		names[i] = g.instanceType
	}
	return names
}()

// SpotPriceAPI is the EC2 surface the provider depends on.
type SpotPriceAPI interface {
	DescribeSpotPriceHistory(ctx context.Context, params *ec2.DescribeSpotPriceHistoryInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSpotPriceHistoryOutput, error)
}

type Provider struct {
	regions   []string
	clientFor func(ctx context.Context, region string) (SpotPriceAPI, error)
}

func New(regions []string) *Provider {
	if len(regions) == 0 {
		regions = append([]string(nil), DefaultRegions...)
	}
	return &Provider{
		regions:   regions,
		clientFor: newEC2Client,
	}
}

func Factory(deps providers.Deps) (providers.Provider, error) {
	return New(deps.AWSRegions), nil
}

func newEC2Client(ctx context.Context, region string) (SpotPriceAPI, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, &providers.ConfigError{
			Source: providers.SourceAWSSpot,
			Err:    fmt.Errorf("unable to load AWS SDK config: %w", err),
		}
	}

	// Test the credentials before issuing any API calls.
	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		return nil, &providers.ConfigError{
			Source: providers.SourceAWSSpot,
			Err:    fmt.Errorf("invalid AWS credentials: %w", err),
		}
	}
	return ec2.NewFromConfig(cfg), nil
}

func (p *Provider) Name() string { return providers.SourceAWSSpot }

func (p *Provider) RateLimit() time.Duration { return rateLimit }

// spotEntry is one deduplicated price observation for an instance type in
// a region.
type spotEntry struct {
	instanceType string
	region       string
	price        float64
	zone         string
	observedAt   time.Time
}

func (p *Provider) Fetch(ctx context.Context) ([]domain.RawOffer, error) {
	logger := zerolog.Ctx(ctx)

	var entries []spotEntry
	regionsTried := 0
	for _, region := range p.regions {
		if regionsTried >= maxRegionsWithData && len(entries) > 0 {
			break
		}
		regionsTried++

		client, err := p.clientFor(ctx, region)
		if err != nil {
			if providers.IsConfigError(err) {
				return nil, err
			}
			logger.Warn().Err(err).Str("region", region).Msg("failed to create EC2 client")
			continue
		}

		regionEntries, err := p.fetchRegion(ctx, client, region)
		if err != nil {
			logger.Warn().Err(err).Str("region", region).Msg("spot price fetch failed")
			continue
		}
		if len(regionEntries) == 0 {
			logger.Warn().Str("region", region).Msg("no GPU spot prices found")
			continue
		}
		entries = append(entries, regionEntries...)
	}

	if len(entries) == 0 {
		return nil, &providers.TransientError{
			Source: providers.SourceAWSSpot,
			Err:    errors.New("no GPU spot prices found in any region"),
		}
	}
	return entriesToOffers(dedupeEntries(entries)), nil
}

// fetchRegion walks the instance type list in batches for the first two
// product descriptions, then falls back to one broad query filtered by the
// GPU instance table.
func (p *Provider) fetchRegion(ctx context.Context, client SpotPriceAPI, region string) ([]spotEntry, error) {
	var history []types.SpotPrice

	for _, desc := range spotProductDescriptions[:maxProductDescriptions] {
		if len(history) > 0 {
			break
		}
		for start := 0; start < len(instanceTypes); start += spotPriceBatchSize {
			end := min(start+spotPriceBatchSize, len(instanceTypes))

			out, err := client.DescribeSpotPriceHistory(ctx, &ec2.DescribeSpotPriceHistoryInput{
				InstanceTypes:       toInstanceTypes(instanceTypes[start:end]),
				ProductDescriptions: []string{desc},
				MaxResults:          aws.Int32(100),
				StartTime:           aws.Time(time.Now().UTC().Add(-time.Hour)),
			})
			if err != nil {
				// Instance types missing from a region are expected.
				var apiErr smithy.APIError
				if errors.As(err, &apiErr) && apiErr.ErrorCode() == "InvalidParameterValue" {
					continue
				}
				return nil, fmt.Errorf("describe spot price history: %w", err)
			}
			history = append(history, out.SpotPriceHistory...)
		}
	}

	if len(history) == 0 {
		out, err := client.DescribeSpotPriceHistory(ctx, &ec2.DescribeSpotPriceHistoryInput{
			ProductDescriptions: []string{"Linux/UNIX (Amazon VPC)"},
			MaxResults:          aws.Int32(1000),
			StartTime:           aws.Time(time.Now().UTC().Add(-6 * time.Hour)),
		})
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("region", region).Msg("generic spot price query failed")
		} else {
			for _, price := range out.SpotPriceHistory {
				if _, ok := instanceGPUByType[string(price.InstanceType)]; ok {
					history = append(history, price)
				}
			}
		}
	}

	return latestPerInstance(history, region), nil
}

// latestPerInstance keeps the most recent observation per instance type.
func latestPerInstance(history []types.SpotPrice, region string) []spotEntry {
	latest := make(map[string]spotEntry)
	for _, price := range history {
		instanceType := string(price.InstanceType)
		if _, ok := instanceGPUByType[instanceType]; !ok {
			continue
		}
		value, err := strconv.ParseFloat(aws.ToString(price.SpotPrice), 64)
		if err != nil {
			continue
		}

		entry := spotEntry{
			instanceType: instanceType,
			region:       region,
			price:        value,
			zone:         aws.ToString(price.AvailabilityZone),
			observedAt:   aws.ToTime(price.Timestamp),
		}
		if current, ok := latest[instanceType]; !ok || entry.observedAt.After(current.observedAt) {
			latest[instanceType] = entry
		}
	}

	entries := make([]spotEntry, 0, len(latest))
	for _, entry := range latest {
		entries = append(entries, entry)
	}
	return entries
}

func dedupeEntries(entries []spotEntry) []spotEntry {
	latest := make(map[string]spotEntry)
	for _, entry := range entries {
		key := entry.instanceType + "_" + entry.region
		if current, ok := latest[key]; !ok || entry.observedAt.After(current.observedAt) {
			latest[key] = entry
		}
	}

	deduped := make([]spotEntry, 0, len(latest))
	for _, entry := range latest {
		deduped = append(deduped, entry)
	}
	sort.Slice(deduped, func(i, j int) bool {
		if deduped[i].region != deduped[j].region {
			return deduped[i].region < deduped[j].region
		}
		return deduped[i].instanceType < deduped[j].instanceType
	})
	return deduped
}

func entriesToOffers(entries []spotEntry) []domain.RawOffer {
	offers := make([]domain.RawOffer, 0, len(entries))
	for _, entry := range entries {
		info := instanceGPUByType[entry.instanceType]

		perGPU := math.Round(entry.price/float64(info.count)*1e4) / 1e4
		total := math.Round(entry.price*1e4) / 1e4

		extra := map[string]string{
			"instance_type":        entry.instanceType,
			"total_instance_price": strconv.FormatFloat(total, 'f', -1, 64),
			"gpu_memory_gb":        strconv.Itoa(info.memoryGB),
		}
		if entry.zone != "" {
			extra["availability_zone"] = entry.zone
		}

		offers = append(offers, domain.RawOffer{
			GPUName:      info.gpu,
			Price:        strconv.FormatFloat(perGPU, 'f', -1, 64),
			Region:       entry.region,
			Availability: strconv.Itoa(info.count),
			ObservedAt:   entry.observedAt,
			Extra:        extra,
		})
	}
	return offers
}

func toInstanceTypes(names []string) []types.InstanceType {
	converted := make([]types.InstanceType, len(names))
	for i, name := range names {
		converted[i] = types.InstanceType(name)
	}
	return converted
}
