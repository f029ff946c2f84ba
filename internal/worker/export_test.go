package worker

var NewConfig = newConfig
