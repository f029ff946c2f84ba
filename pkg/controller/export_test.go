package controller

var WithRateLimitClock = withRateLimit
