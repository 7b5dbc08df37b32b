package config

import "time"

// Default returns the settings of the production bot on the Japanese
// Wikipedia.
func Default() *Config {
	return &Config{
		Wiki: WikiConfig{
			APIURL:       "https://ja.wikipedia.org/w/api.php",
			UserAgent:    "nanonaBot2/wikibot 1.0.0 (Toolforge)",
			WriteRPS:     0.2,
			MaxRetries:   4,
			EditAttempts: 3,
			MaxLag:       5,
		},
		Tasks: TasksConfig{
			StatusPage:     "利用者:NanonaBot2/tasks",
			StatusTemplate: "{{利用者:NanonaBot2/tasks/template",
			Timezone:       "Asia/Tokyo",
			PageMake: PageMakeConfig{
				TaskID:       "nnId1",
				TemplatePage: "プロジェクト:カテゴリ関連/議論/日別ページ雛形",
				TitleBase:    "プロジェクト:カテゴリ関連/議論",
				Summary:      "Bot: 議論ページの作成",
			},
			HighRevs: HighRevsConfig{
				ReportPage:   "利用者:NanonaBot2/版数の多いページ一覧",
				MinRevisions: 4500,
				Limit:        500,
				Summary:      "Bot:版数の多いページ一覧を更新",
			},
			Sandbox: SandboxTask{
				TaskID:      "nnId3",
				RevLimit:    4500,
				Noticeboard: "Wikipedia:管理者伝言板/各種初期化依頼",
			},
		},
		Log: LogConfig{Dir: "log"},
		Replica: ReplicaConfig{
			Host:     "jawiki.analytics.db.svc.wikimedia.cloud",
			Port:     3306,
			Database: "jawiki_p",
			CnfPath:  "~/replica.my.cnf",
			Timeout:  2 * time.Minute,
		},
		RunStore: RunStoreConfig{Path: "log/runs.json"},
		Sandboxes: []SandboxConfig{
			{Title: "Wikipedia‐ノート:サンドボックス", Template: "ノート用サンドボックスの初期化", Section: "サンドボックスの初期化依頼"},
			{Title: "Help:ビジュアルエディター/sandbox", Template: "ビジュアルエディター用サンドボックスの初期化", Section: "ビジュアルエディター/sandboxの初期化依頼"},
			{Title: "Help:VisualEditor_sandbox", Template: "利用者:Nanona15dobato/VisualEditor sandbox 初期化用", Section: "ビジュアルエディター/sandboxの初期化依頼"},
		},
	}
}
