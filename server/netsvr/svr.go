// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package netsvr

import (
	"net/http"

	"github.com/zintix-labs/detrand/server/app"
)

// NetSvr 為「路由 + 啟停」的組合，只交給最外層組裝者；
// 本身即為 app.Component，可直接交給 app.App 管理。
type NetSvr interface {
	NetRouter
	app.Component
	// Handler 回傳根 handler，供 httptest 或嵌入既有服務使用。
	Handler() http.Handler
}

// NetRouter 只有路由行為，看不到 Run/Shutdown，給 handler 與子模組注入用。
type NetRouter interface {
	Use(middleware func(http.Handler) http.Handler)

	Get(path string, h http.HandlerFunc)
	Post(path string, h http.HandlerFunc)

	Group(path string, fn func(NetRouter))
}
