package mocks

//go:generate mockery --name TripStore --srcpkg github.com/fleetlab/fleet-analytics/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
//go:generate mockery --name VehicleStatsStore --srcpkg github.com/fleetlab/fleet-analytics/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
//go:generate mockery --name RollupStore --srcpkg github.com/fleetlab/fleet-analytics/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
//go:generate mockery --name ScheduleRepository --srcpkg github.com/fleetlab/fleet-analytics/internal/rollup --output ./rollup --outpkg rollupmocks --with-expecter
