package dataprocessing

import (
	"fmt"

	"policydash/pkg/contracts/domain"
)

// Chart identifiers.
const (
	ChartCategory = "category"
	ChartInsurer  = "insurer"
	ChartProduct  = "product"
	ChartManager  = "manager"
	ChartBranch   = "branch"
	ChartAgent    = "agent"
	ChartTrend    = "trend"
)

// Presentation limits.
const (
	RankingTopN      = 10
	DistributionTopN = 8
)

// ChartSpec declares a chart: the columns it needs and how to compute it.
type ChartSpec struct {
	ID          string
	Title       string
	Section     string
	Kind        domain.ChartKind
	TopN        int
	Requires    []string
	InReport    bool
	OverallOnly bool

	compute func(table *domain.Table, scope Scope) domain.AggregationResult
}

// Available reports whether table carries every required column.
func (c ChartSpec) Available(table *domain.Table) bool {
	return table.HasColumns(c.Requires...)
}

// Compute evaluates the chart for scope and applies its top-N limit.
func (c ChartSpec) Compute(table *domain.Table, scope Scope) domain.AggregationResult {
	return c.compute(table, scope).Top(c.TopN)
}

// TitleFor returns the chart title qualified by the scope label.
func (c ChartSpec) TitleFor(scope Scope) string {
	if c.OverallOnly {
		return c.Title
	}
	return fmt.Sprintf("%s - %s", c.Title, scope.Label)
}

// Registry holds chart specs in presentation order.
type Registry struct {
	specs []ChartSpec
	index map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register appends a spec. IDs must be unique.
func (r *Registry) Register(spec ChartSpec) error {
	if spec.ID == "" || spec.compute == nil {
		return fmt.Errorf("chart spec %q is incomplete", spec.ID)
	}
	if _, dup := r.index[spec.ID]; dup {
		return fmt.Errorf("chart %q already registered", spec.ID)
	}
	r.index[spec.ID] = len(r.specs)
	r.specs = append(r.specs, spec)
	return nil
}

// Charts returns every spec in registration order.
func (r *Registry) Charts() []ChartSpec {
	return append([]ChartSpec(nil), r.specs...)
}

// Lookup finds a spec by ID.
func (r *Registry) Lookup(id string) (ChartSpec, bool) {
	i, ok := r.index[id]
	if !ok {
		return ChartSpec{}, false
	}
	return r.specs[i], true
}

// Evaluate computes every available chart for each scope. Charts whose
// columns are missing are listed in skipped instead.
func (r *Registry) Evaluate(table *domain.Table, scopes ...Scope) (charts []domain.ChartResult, skipped []string) {
	charts = []domain.ChartResult{}
	for _, spec := range r.specs {
		if !spec.Available(table) {
			skipped = append(skipped, spec.ID)
			continue
		}
		for _, scope := range scopes {
			if spec.OverallOnly && scope.Name != domain.ScopeOverall {
				continue
			}
			charts = append(charts, domain.ChartResult{
				ID:     spec.ID,
				Title:  spec.TitleFor(scope),
				Kind:   spec.Kind,
				Scope:  scope.Name,
				Result: spec.Compute(table, scope),
			})
		}
	}
	return charts, skipped
}

func dimensionChart(column string, metric domain.Metric) func(*domain.Table, Scope) domain.AggregationResult {
	return func(table *domain.Table, scope Scope) domain.AggregationResult {
		return Aggregate(table, column, metric, scope)
	}
}

func premiumRequires(column string) []string {
	return []string{column, domain.ColumnCommissionablePremium}
}

// DefaultRegistry returns the dashboard charts in report page order.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	specs := []ChartSpec{
		{
			ID: ChartCategory, Title: "Premium by Category", Section: "Category",
			Kind: domain.ChartBar, Requires: premiumRequires(domain.ColumnCategory), InReport: true,
			compute: dimensionChart(domain.ColumnCategory, domain.MetricPremiumSum),
		},
		{
			ID: ChartInsurer, Title: "Top 10 Insurers", Section: "Insurers",
			Kind: domain.ChartHorizontalBar, TopN: RankingTopN, Requires: premiumRequires(domain.ColumnInsurerName), InReport: true,
			compute: dimensionChart(domain.ColumnInsurerName, domain.MetricPremiumSum),
		},
		{
			ID: ChartProduct, Title: "Product Distribution", Section: "Products",
			Kind: domain.ChartPie, TopN: DistributionTopN, Requires: []string{domain.ColumnProduct}, InReport: true,
			compute: dimensionChart(domain.ColumnProduct, domain.MetricRowCount),
		},
		{
			ID: ChartManager, Title: "Top 10 Managers", Section: "Managers",
			Kind: domain.ChartBar, TopN: RankingTopN, Requires: premiumRequires(domain.ColumnManagerName), InReport: true,
			compute: dimensionChart(domain.ColumnManagerName, domain.MetricPremiumSum),
		},
		{
			ID: ChartBranch, Title: "Top 10 Branches", Section: "Branches",
			Kind: domain.ChartBar, TopN: RankingTopN, Requires: premiumRequires(domain.ColumnBranchName), InReport: true,
			compute: dimensionChart(domain.ColumnBranchName, domain.MetricPremiumSum),
		},
		{
			ID: ChartAgent, Title: "Top 10 Agents", Section: "Agents",
			Kind: domain.ChartBar, TopN: RankingTopN, Requires: premiumRequires(domain.ColumnAgentName),
			compute: dimensionChart(domain.ColumnAgentName, domain.MetricPremiumSum),
		},
		{
			ID: ChartTrend, Title: "Monthly Premium Trend", Section: "Monthly Premium Trend",
			Kind: domain.ChartBar, Requires: []string{domain.ColumnIssuedDate, domain.ColumnCommissionablePremium},
			InReport: true, OverallOnly: true,
			compute: func(table *domain.Table, _ Scope) domain.AggregationResult {
				return MonthlyTrend(table)
			},
		},
	}
	for _, spec := range specs {
		if err := r.Register(spec); err != nil {
			panic(err)
		}
	}
	return r
}
