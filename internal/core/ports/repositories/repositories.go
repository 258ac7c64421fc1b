package repositories

// RepositoryProvider aggregates the repository implementations handed to the
// service layer at wiring time.
type RepositoryProvider struct {
	AccountBookRepo AccountBookReader
	HierarchyRepo   HierarchyReader
	LedgerRepo      LedgerRepositoryFacade
}
