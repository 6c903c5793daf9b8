package distance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"go.uber.org/atomic"

	"collection-planning-service/internal/adapters/cache"
	"collection-planning-service/internal/domain"
	"collection-planning-service/internal/platform/obs"
	"collection-planning-service/internal/ports"
)

// MatrixDistanceProvider implements DistanceMatrixProvider against an
// OpenRouteService-compatible matrix endpoint.
//
// It coordinates:
//   - Persistent distance caching keyed by coordinate pairs
//   - External API calls with retry/backoff and a bounded timeout
//   - Per-call degradation to haversine on any service failure
//
// A matrix outage degrades estimates; it never fails a planning run.
// The provider is safe for concurrent use.
type MatrixDistanceProvider struct {
	session       *http.Client
	apiKey        string
	baseURL       string
	profile       string
	distanceCache cache.DistanceCache
	fallback      *HaversineProvider

	// Count of lookups served by haversine because the matrix service
	// failed; reported in the run summary.
	Fallbacks atomic.Int64
}

func NewMatrixDistanceProvider(
	apiKey string,
	baseURL string,
	speedKmh float64,
	distanceCache cache.DistanceCache,
) (*MatrixDistanceProvider, error) {
	if apiKey == "" {
		return nil, errors.New("matrix provider: api key is empty")
	}
	if baseURL == "" {
		baseURL = "https://api.openrouteservice.org"
	}

	return &MatrixDistanceProvider{
		session:       &http.Client{Timeout: 10 * time.Second},
		apiKey:        apiKey,
		baseURL:       baseURL,
		profile:       "driving-hgv",
		distanceCache: distanceCache,
		fallback:      NewHaversineProvider(speedKmh),
	}, nil
}

// FallbackCount reports how many lookups degraded to haversine since
// the provider was created.
func (m *MatrixDistanceProvider) FallbackCount() int64 {
	return m.Fallbacks.Load()
}

// Delegate to the batched path to reuse caching and fallback logic.
func (m *MatrixDistanceProvider) GetDistance(
	ctx context.Context,
	origin, destination domain.Coordinates,
) (ports.DistanceResult, error) {
	results, err := m.GetDistances(ctx, origin, []domain.Coordinates{destination})
	if err != nil {
		return ports.DistanceResult{}, fmt.Errorf(
			"get distances %s -> %s: %w", origin.Key(), destination.Key(), err)
	}

	r, ok := results[destination.Key()]
	if !ok {
		return ports.DistanceResult{}, fmt.Errorf(
			"no distance result for %s -> %s", origin.Key(), destination.Key())
	}
	return r, nil
}

// Compute road distances from a single origin to many destinations,
// serving from cache where possible and degrading to haversine when the
// matrix service cannot be reached.
func (m *MatrixDistanceProvider) GetDistances(
	ctx context.Context,
	origin domain.Coordinates,
	destinations []domain.Coordinates,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "matrix.GetDistances")(&err)

	if len(destinations) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	originKey := origin.Key()

	selfLookup := false
	seen := make(map[string]struct{}, len(destinations))
	destList := make([]domain.Coordinates, 0, len(destinations))
	destKeys := make([]string, 0, len(destinations))
	for _, d := range destinations {
		k := d.Key()
		if k == originKey {
			selfLookup = true
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		destList = append(destList, d)
		destKeys = append(destKeys, k)
	}

	if len(destList) == 0 {
		out := map[string]ports.DistanceResult{}
		if selfLookup {
			out[originKey] = ports.DistanceResult{}
		}
		return out, nil
	}

	hits := make(map[string]ports.DistanceResult)
	// Check the persistent cache before issuing external API calls.
	if m.distanceCache != nil {
		var cerr error
		hits, cerr = m.distanceCache.GetMany(ctx, originKey, destKeys)
		if cerr != nil {
			// A broken cache is not worth failing a lookup over.
			log.Printf("distance cache read failed: %v", cerr)
			hits = map[string]ports.DistanceResult{}
		}
	}

	misses := make([]domain.Coordinates, 0, len(destList))
	for i, d := range destList {
		if _, ok := hits[destKeys[i]]; !ok {
			misses = append(misses, d)
		}
	}

	if len(misses) == 0 {
		if selfLookup {
			hits[originKey] = ports.DistanceResult{}
		}
		return hits, nil
	}

	fetched, err := m.fetchMatrixRow(ctx, origin, misses)
	if err != nil {
		// TransientServiceError path: degrade this call to haversine
		// and keep the run going.
		m.Fallbacks.Add(int64(len(misses)))
		log.Printf("matrix lookup failed, falling back to haversine: origin=%s misses=%d err=%v",
			originKey, len(misses), err)
		fetched, _ = m.fallback.GetDistances(ctx, origin, misses)
	} else if m.distanceCache != nil {
		// Only road results are cached; haversine is cheap to recompute.
		if cerr := m.distanceCache.PutMany(ctx, originKey, fetched); cerr != nil {
			log.Printf("distance cache write failed: %v", cerr)
		}
	}

	out := make(map[string]ports.DistanceResult, len(hits)+len(fetched))
	for k, v := range hits {
		out[k] = v
	}
	for k, v := range fetched {
		out[k] = v
	}
	if selfLookup {
		out[originKey] = ports.DistanceResult{}
	}
	return out, nil
}

type matrixRequest struct {
	Locations    [][]float64 `json:"locations"`
	Destinations []int       `json:"destinations"`
	Metrics      []string    `json:"metrics"`
	Sources      []int       `json:"sources"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// fetchMatrixRow retrieves distance and duration from one origin to
// many destinations using the matrix endpoint.
func (m *MatrixDistanceProvider) fetchMatrixRow(
	ctx context.Context,
	origin domain.Coordinates,
	destinations []domain.Coordinates,
) (map[string]ports.DistanceResult, error) {
	endpoint := fmt.Sprintf("%s/v2/matrix/%s", m.baseURL, m.profile)

	locations := make([][]float64, 0, 1+len(destinations))
	locations = append(locations, origin.CoordsToList())
	for _, c := range destinations {
		locations = append(locations, c.CoordsToList())
	}

	destIdx := make([]int, 0, len(destinations))
	for i := 1; i < len(locations); i++ {
		destIdx = append(destIdx, i)
	}

	bodyObj := matrixRequest{
		Locations:    locations,
		Destinations: destIdx,
		Metrics:      []string{"distance", "duration"},
		Sources:      []int{0},
	}

	payload, err := json.Marshal(bodyObj)
	if err != nil {
		return nil, fmt.Errorf("marshal matrix request: %w", err)
	}

	resp, err := m.doWithRetry(ctx, func() (*http.Request, error) {
		return m.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return nil, fmt.Errorf("matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("decode matrix response: %w", err)
	}

	if len(mr.Distances) != 1 || len(mr.Durations) != 1 {
		return nil, fmt.Errorf(
			"expected 1 source row; got distances=%d durations=%d",
			len(mr.Distances), len(mr.Durations))
	}

	rowDistances := mr.Distances[0]
	rowDurations := mr.Durations[0]
	if len(rowDistances) != len(destinations) || len(rowDurations) != len(destinations) {
		return nil, fmt.Errorf(
			"row lengths do not match destinations: distances=%d durations=%d destinations=%d",
			len(rowDistances), len(rowDurations), len(destinations))
	}

	out := make(map[string]ports.DistanceResult, len(destinations))
	for i, dest := range destinations {
		metersPtr := rowDistances[i]
		secondsPtr := rowDurations[i]
		if metersPtr == nil || secondsPtr == nil {
			return nil, fmt.Errorf("matrix returned invalid metrics for %s", dest.Key())
		}

		out[dest.Key()] = ports.DistanceResult{
			DistanceMeters:  int(math.Round(*metersPtr)),
			DurationSeconds: int(math.Round(*secondsPtr)),
		}
	}

	return out, nil
}
