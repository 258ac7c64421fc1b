package services

// ServiceContainer holds all the service interfaces for dependency injection
type ServiceContainer struct {
	Balance    BalanceSvc
	Holding    HoldingSvc
	Breakdown  BreakdownSvc
	Transactor TransactorSvc
}
