package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/injector"
)

type (
	repo    struct{ db *db }
	db      struct{}
	session struct{}
)

var (
	dbKey      = injector.NewKey[*db]("db")
	repoKey    = injector.NewKey[*repo]("repo")
	sessionKey = injector.NewKey[*session]("session")
)

func newInjector(t *testing.T, mw injector.Middleware) *injector.Injector {
	t.Helper()

	inj := injector.New(injector.WithMiddleware(mw))

	require.NoError(t, injector.RegisterValue(inj, dbKey, &db{}))
	require.NoError(t, injector.RegisterTransient(inj, repoKey, func(r injector.Resolver) (*repo, error) {
		d, err := injector.Resolve(r, dbKey)
		if err != nil {
			return nil, err
		}

		return &repo{db: d}, nil
	}))
	require.NoError(t, injector.RegisterScoped(inj, sessionKey, func(injector.Resolver) (*session, error) {
		return &session{}, nil
	}))

	return inj
}

func TestMetrics_CountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()

	m, err := NewMetrics("app", reg)
	require.NoError(t, err)

	inj := newInjector(t, m)

	_, err = injector.Resolve(inj, repoKey)
	require.NoError(t, err)
	_, err = injector.Resolve(inj, repoKey)
	require.NoError(t, err)

	_, err = injector.Resolve(inj, sessionKey)
	require.Error(t, err)

	_, err = inj.Resolve(injector.NewTypeKey("missing"))
	require.Error(t, err)

	assert.InDelta(t, 2, testutil.ToFloat64(m.resolutionsTotal.WithLabelValues("repo", OutcomeSuccess)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.resolutionsTotal.WithLabelValues("db", OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.resolutionsTotal.WithLabelValues("session", OutcomeNoScope)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.resolutionsTotal.WithLabelValues("missing", OutcomeNotRegistered)), 0)

	assert.Equal(t, 4, testutil.CollectAndCount(m.resolveDuration))
}

func TestMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := NewMetrics("app", reg)
	require.NoError(t, err)

	_, err = NewMetrics("app", reg)
	assert.Error(t, err)
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, OutcomeSuccess},
		{"not registered", injector.ErrNotRegistered(injector.NewTypeKey("x")), OutcomeNotRegistered},
		{"no scope", injector.ErrNoActiveScope, OutcomeNoScope},
		{"cycle", &injector.CyclicDependencyError{}, OutcomeCycle},
		{"other", errors.New("boom"), OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Outcome(tt.err))
		})
	}
}
