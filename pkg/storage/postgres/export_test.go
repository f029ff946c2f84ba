package postgres

var PoolConfig = poolConfig
